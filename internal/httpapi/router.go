// Package httpapi exposes the recording and run operations over HTTP for browser clients.
package httpapi

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/runs"
)

// Service is the subset of the application the HTTP surface drives.
type Service interface {
	State() domain.Snapshot
	LogSince(sinceSeq int64) []runs.Entry
	GetProviders() []domain.ProviderOption
	GetDiagnostics() domain.DiagnosticReport
	SelectProvider(provider string) error
	SetCredential(provider, key string) error
	StartRecording() (domain.Run, error)
	StopRecording() error
	SubmitRecording(payload domain.AudioPayload) (domain.Run, error)
	BeginBrowserRecording() (domain.Run, error)
	ConfirmBrowserRecording(runID string) error
	ReportCaptureError(runID, message string) error
	StopBrowserRecording(runID string) error
	CompleteBrowserRecording(runID string, payload domain.AudioPayload) (domain.Run, error)
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// Assets, when set, is served at the root for the browser view.
	Assets fs.FS
	Logger *zap.Logger
}

// NewRouter builds the chi router with CORS and request logging.
func NewRouter(svc Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &Handler{svc: svc, log: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/ping", h.Ping)

	r.Route("/api", func(api chi.Router) {
		api.Get("/state", h.GetState)
		api.Get("/log", h.GetLog)
		api.Get("/providers", h.GetProviders)
		api.Get("/diagnostics", h.GetDiagnostics)
		api.Put("/provider", h.PutProvider)
		api.Put("/credentials/{provider}", h.PutCredential)
		api.Post("/recording/start", h.StartRecording)
		api.Post("/recording/stop", h.StopRecording)
		api.Post("/runs", h.SubmitRun)

		api.Route("/browser-recording", func(br chi.Router) {
			br.Post("/", h.BeginBrowserRecording)
			br.Post("/{runID}/started", h.ConfirmBrowserRecording)
			br.Post("/{runID}/error", h.ReportCaptureError)
			br.Post("/{runID}/stop", h.StopBrowserRecording)
		})
	})

	if opts.Assets != nil {
		r.Handle("/*", http.FileServer(http.FS(opts.Assets)))
	}

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
