package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the project's defaults. WriteTimeout stays
// above the chat backend timeout so slow turns are not cut off mid-reply.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
