package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID ensures every request/response carries a correlation ID.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if cid == "" {
			cid = generateCorrelationID()
		}
		w.Header().Set(CorrelationIDHeader, cid)
		next.ServeHTTP(w, r)
	})
}

func generateCorrelationID() string {
	b := make([]byte, 16)
	_, err := rand.Read(b)
	if err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}
