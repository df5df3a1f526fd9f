package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/avatar"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs every request at debug level.
func LoggingMiddleware(logger *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			// only meaningful over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handlers bundles everything the router mounts.
type Handlers struct {
	Users   *user.Handler
	Tasks   *task.Handler
	Avatars *avatar.Handler
	Gate    *auth.Gate
}

// RegisterRoutes mounts the API on a gorilla/mux router.
func RegisterRoutes(h Handlers, logger *zap.SugaredLogger) http.Handler {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger), SecurityHeadersMiddleware())
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utilities.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utilities.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	protect := func(fn http.HandlerFunc) http.Handler { return h.Gate.Middleware(fn) }

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// users
	r.HandleFunc("/users", h.Users.Register).Methods(http.MethodPost)
	r.HandleFunc("/users/login", h.Users.Login).Methods(http.MethodPost)
	r.Handle("/users/logout", protect(h.Users.Logout)).Methods(http.MethodPost)
	r.Handle("/users/logoutAll", protect(h.Users.LogoutAll)).Methods(http.MethodPost)
	r.Handle("/users/me", protect(h.Users.Me)).Methods(http.MethodGet)
	r.Handle("/users/me", protect(h.Users.UpdateMe)).Methods(http.MethodPatch)
	r.Handle("/users/me", protect(h.Users.DeleteMe)).Methods(http.MethodDelete)

	// avatars
	r.Handle("/users/me/avatar", protect(h.Avatars.Upload)).Methods(http.MethodPost)
	r.Handle("/users/me/avatar", protect(h.Avatars.Delete)).Methods(http.MethodDelete)
	r.HandleFunc("/users/{id}/avatar", h.Avatars.Get).Methods(http.MethodGet)

	// tasks
	r.Handle("/tasks", protect(h.Tasks.Create)).Methods(http.MethodPost)
	r.Handle("/tasks", protect(h.Tasks.List)).Methods(http.MethodGet)
	r.Handle("/tasks/{id}", protect(h.Tasks.Get)).Methods(http.MethodGet)
	r.Handle("/tasks/{id}", protect(h.Tasks.Update)).Methods(http.MethodPatch)
	r.Handle("/tasks/{id}", protect(h.Tasks.Delete)).Methods(http.MethodDelete)

	return r
}
