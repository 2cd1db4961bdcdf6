package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler returns the API routes mounted under /api, plus /healthz.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"Content-Disposition", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/stack", s.stackHandler())
		r.Route("/documents/{id}", func(r chi.Router) {
			r.Get("/preview", s.pdfHandler("inline", "preview.pdf"))
			r.Get("/download", s.pdfHandler("attachment", "document.pdf"))
			r.Post("/fields", s.saveFieldsHandler())
			r.Get("/fields", s.getFieldsHandler())
			r.Post("/sign", s.signHandler())
			r.Post("/finalize", s.finalizeHandler())
			r.Get("/info", s.infoHandler())
			r.Get("/pages/{pageNumber}/image", s.pageImageHandler())
		})
	})
	return r
}

// requestLogger logs one line per request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"requestId", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start))
	})
}
