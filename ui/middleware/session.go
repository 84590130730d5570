// Package middleware carries chi middleware shared by the UI routes.
package middleware

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"protoval/domain/core"
	"protoval/internal/session"
)

// RequireSession rejects requests whose {session} URL parameter does not
// resolve to a live review session, redirecting the browser back to the
// upload page. Handlers behind it can still see a session vanish between
// the check and their own Get when the TTL expires mid-request.
func RequireSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "session")
			if _, err := store.Get(core.SessionID(id)); err != nil {
				log.Printf("[UI] Session %s rejected: %v", id, err)
				http.Redirect(w, r, "/?expired=1", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
