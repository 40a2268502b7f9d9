package middleware

import "net/http"

// WithKeyPrefix attaches an authenticated key prefix the way Authenticate does.
func WithKeyPrefix(r *http.Request, prefix string) *http.Request {
	return r.WithContext(setKeyPrefix(r.Context(), prefix))
}
