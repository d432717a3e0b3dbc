package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods  = "POST, GET, OPTIONS"
	corsAllowHeaders  = "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-Id, Connect-Protocol-Version, Connect-Timeout-Ms"
	corsExposeHeaders = "X-Request-Id, Connect-Content-Encoding, Connect-Accept-Encoding"
)

// CORS answers preflight requests and reflects the caller's origin so the
// timer page can post minutes from another host.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
