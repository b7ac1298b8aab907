package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HTTPServer serves Handler until the context is cancelled, then shuts down gracefully.
type HTTPServer struct {
	Addr            string
	Handler         http.Handler
	ShutdownTimeout time.Duration
}

func (w *HTTPServer) Start(ctx context.Context) error {
	if w.ShutdownTimeout <= 0 {
		w.ShutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Addr:              w.Addr,
		Handler:           w.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("http server: listening", "addr", w.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), w.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("http server: stopped")
	return nil
}
