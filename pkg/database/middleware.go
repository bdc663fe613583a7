package database

import (
	"net/http"
)

// WithScope returns middleware that binds the connection pool into every
// request context. Services that need transactional behavior rebind the
// scope themselves via WithTx.
func WithScope(db *DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetScope(r.Context(), &Scope{Conn: db.Pool})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
