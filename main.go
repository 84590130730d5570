// Protoval scores clinical study protocol documents against a
// configurable rule set and serves the results over a web UI and a
// JSON API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"protoval/internal/api"
	"protoval/internal/config"
	"protoval/internal/container"
	"protoval/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.Server.GinMode)

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	c.StartJanitor()
	defer c.Shutdown()

	app, err := ui.NewApp(c)
	if err != nil {
		log.Fatalf("Failed to build web UI: %v", err)
	}
	apiServer := api.NewServer(c)

	uiSrv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: app.Handler()}
	apiSrv := &http.Server{Addr: ":" + cfg.Server.APIPort, Handler: apiServer.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Web UI listening on :%s", cfg.Server.Port)
		if err := uiSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("API listening on :%s", cfg.Server.APIPort)
		if err := apiSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		uiErr := uiSrv.Shutdown(shutdownCtx)
		apiErr := apiSrv.Shutdown(shutdownCtx)
		if uiErr != nil {
			return uiErr
		}
		return apiErr
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shutdown complete")
}
