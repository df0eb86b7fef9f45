package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"krishi-backend/pkg/utils"
)

// PanicRecovery keeps a panicking handler from taking the server down
// and answers with the same JSON error shape the handlers use.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOVERED on %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
