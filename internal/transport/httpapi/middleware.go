package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/yanun0323/logs"

	"assetverse/internal/schema"
	"assetverse/pkg/exception"
)

type principalKey struct{}

// PrincipalFrom returns the caller principal stored by the identity middleware.
func PrincipalFrom(ctx context.Context) (schema.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(schema.Principal)
	return p, ok && p != ""
}

// requirePrincipal reads the pre-verified caller identity from header. The
// ledger never authenticates; a fronting gateway is trusted to set it.
func requirePrincipal(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := strings.TrimSpace(r.Header.Get(header))
			if p == "" {
				writeJSON(w, http.StatusUnauthorized, ErrorBody{
					Code:    exception.CodeInvalidArgument.String(),
					Message: "missing caller identity",
				})
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, schema.Principal(p))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		logs.Infof("%s %s %d %s", r.Method, path, wrapped.statusCode, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
