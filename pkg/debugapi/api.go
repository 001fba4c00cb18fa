package debugapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/recipekit/pkg/feature"
	"github.com/dmitrymomot/recipekit/pkg/httpserver"
	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/offline"
	"github.com/dmitrymomot/recipekit/pkg/syncdriver"
)

// API serves the debug routes.
type API struct {
	queue    *offline.Queue
	features *feature.Store
	driver   *syncdriver.Driver
	detector *netstatus.Detector
	checks   map[string]httpserver.Check
	log      *slog.Logger
}

type Option func(*API)

// WithDriver enables POST /queue/sync.
func WithDriver(d *syncdriver.Driver) Option {
	return func(a *API) { a.driver = d }
}

// WithDetector routes PUT /network through the detector so its subscribers,
// including the queue, see the change.
func WithDetector(d *netstatus.Detector) Option {
	return func(a *API) { a.detector = d }
}

// WithHealthCheck adds a named readiness check to /healthz.
func WithHealthCheck(name string, check httpserver.Check) Option {
	return func(a *API) {
		if name != "" && check != nil {
			a.checks[name] = check
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

func New(queue *offline.Queue, features *feature.Store, opts ...Option) *API {
	a := &API{
		queue:    queue,
		features: features,
		checks:   make(map[string]httpserver.Check),
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(logger.Component("debugapi"))
	return a
}

// Router builds the chi router.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	health := httpserver.HealthHandler(a.log, a.checks)
	r.Get("/healthz", health)
	r.Head("/healthz", health)

	r.Route("/queue", func(r chi.Router) {
		r.Get("/", a.getQueue)
		r.Post("/sync", a.syncQueue)
		r.Post("/failed/retry", a.retryAll)
		r.Post("/failed/{id}/retry", a.retryOne)
		r.Delete("/failed", a.clearFailed)
		r.Delete("/failed/{id}", a.removeFailed)
	})

	r.Get("/network", a.getNetwork)
	r.Put("/network", a.putNetwork)

	r.Route("/features", func(r chi.Router) {
		r.Get("/", a.getFeatures)
		r.Put("/segment", a.putSegment)
		r.Put("/development-mode", a.putDevelopmentMode)
		r.Delete("/overrides", a.clearOverrides)
		r.Put("/{key}/override", a.putOverride)
		r.Delete("/{key}/override", a.deleteOverride)
	})

	return r
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		a.log.Log(r.Context(), level, "debug api request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
