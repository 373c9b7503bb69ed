// Package router wires every HTTP handler into a chi router.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/student-portal/internal/http/handlers/admin"
	"github.com/aanand-mishra/student-portal/internal/http/handlers/health"
	"github.com/aanand-mishra/student-portal/internal/http/handlers/student"
	"github.com/aanand-mishra/student-portal/internal/storage"
)

// New builds the route table:
//
//	GET    /api/health          → backend health
//	POST   /api/admin/login     → admin login
//	POST   /api/student/login   → student login
//	GET    /api/students        → list all students
//	POST   /api/students        → create a new student
//	GET    /api/students/{id}   → get one student by ID
//	PUT    /api/students/{id}   → update a student
//	DELETE /api/students/{id}   → delete a student
func New(store storage.Storage, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimw.Recoverer)

	r.Get("/api/health", health.Check(store))

	r.Post("/api/admin/login", admin.Login(store))
	r.Post("/api/student/login", student.Login(store))

	r.Route("/api/students", func(r chi.Router) {
		r.Get("/", student.GetList(store))
		r.Post("/", student.New(store))
		r.Get("/{id}", student.GetByID(store))
		r.Put("/{id}", student.Update(store))
		r.Delete("/{id}", student.Delete(store))
	})

	return r
}

// requestLogger writes one line per request once it has completed.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
