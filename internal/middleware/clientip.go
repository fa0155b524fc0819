// AngelaMos | 2026
// clientip.go

package middleware

import (
	"net"
	"net/http"
	"strings"
)

var clientIPHeaders = []string{
	"X-Forwarded-For",
	"CF-Connecting-IP",
	"True-Client-IP",
}

// ClientIP returns the caller address as reported by the edge proxy, using
// the first X-Forwarded-For hop, then the CDN headers, then RemoteAddr.
func ClientIP(r *http.Request) string {
	for _, header := range clientIPHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		if ip := strings.TrimSpace(strings.Split(value, ",")[0]); ip != "" {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
