// Protoval MCP server: clinical protocol review over the Model Context
// Protocol.
//
// Exposes validate_protocol, improve_section, list_study_types and
// protocol_requirements over a stdio transport so AI assistants can
// score and rewrite study protocol documents.
//
// Add to your AI tool's MCP config:
//
//	{
//	  "mcpServers": {
//	    "protoval": {
//	      "command": "protoval-mcp"
//	    }
//	  }
//	}
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"protoval/internal/config"
	"protoval/internal/container"
	"protoval/internal/mcp"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("protoval-mcp v%s\n", mcp.Version)
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown argument: %s\nprotoval-mcp serves MCP over stdio and takes no arguments.\n", os.Args[1])
			os.Exit(1)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// stdout belongs to the MCP transport; everything else goes to
	// stderr, including the standard logger's container output.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}
	c.StartJanitor()
	defer c.Shutdown()

	// Stop the session janitor on interrupt; the stdio server itself
	// ends when the client closes stdin.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		c.Shutdown()
		os.Exit(0)
	}()

	return server.ServeStdio(mcp.New(c))
}
