// Package server exposes the assembly pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/georgepadayatti/docstacker/assembly"
	"github.com/georgepadayatti/docstacker/document"
	"github.com/georgepadayatti/docstacker/logger"
)

// Service is the document lifecycle the API serves.
type Service interface {
	Stack(ctx context.Context, parts assembly.Parts) (*assembly.StackResult, error)
	Document(ctx context.Context, id string) ([]byte, error)
	SaveFields(ctx context.Context, id string, fields []document.SignatureField) (int, error)
	Fields(ctx context.Context, id string) ([]document.SignatureField, error)
	Sign(ctx context.Context, id string, signatures map[string]string) (string, error)
	Finalize(ctx context.Context, id string) (string, error)
	Info(ctx context.Context, id string) (*assembly.Info, error)
	RenderPage(ctx context.Context, id string, page int) ([]byte, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr            string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultOptions returns the default server options.
func DefaultOptions() *Options {
	return &Options{
		Addr:            ":8080",
		AllowedOrigins:  []string{"*"},
		MaxUploadBytes:  50 << 20,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves the document API.
type Server struct {
	svc  Service
	opts Options
	log  *logger.Logger
}

// New creates a Server. A nil opts uses DefaultOptions and a nil log
// discards output.
func New(svc Service, opts *Options, log *logger.Logger) *Server {
	if opts == nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = logger.Nop()
	}
	o := *opts
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 50 << 20
	}
	return &Server{svc: svc, opts: o, log: log.With("component", "http")}
}

// Run serves until ctx is cancelled, then shuts down gracefully, giving
// in-flight requests up to the shutdown timeout to finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "timeout", s.opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
