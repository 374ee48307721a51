package httpserver

import (
	"net/http"
	"time"

	"legacy-keeper-go/internal/config"
)

// New builds the listener. The write deadline leaves room past the per-request
// timeout so chi's Timeout middleware can still answer with 504.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}
