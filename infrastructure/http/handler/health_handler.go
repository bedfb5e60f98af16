package handler

import (
	"net/http"
	"time"

	"github.com/schoolyard/schoolyard/infrastructure/http/response"
)

func Health(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "ok", map[string]interface{}{
			"service":   service,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
