package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/procurehq/reqflow/internal/httputil"
)

// WorkerAuth creates middleware that authenticates delivery workers by
// comparing the X-Worker-Key header against a configured bcrypt hash.
// An empty hash disables the worker endpoints entirely.
func WorkerAuth(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				httputil.Error(w, http.StatusNotFound, "worker endpoints disabled")
				return
			}

			key := r.Header.Get("X-Worker-Key")
			if key == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing worker key")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid worker key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
