package route

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"alarmserver/internal/handler"
	"alarmserver/internal/logger"
	"alarmserver/internal/middleware"
	"alarmserver/internal/repository"
)

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Processor     handler.Processor
	Workers       handler.WorkerCounter
	Captures      handler.CaptureStore
	CaptureRepo   repository.CaptureRepository
	DetectionRepo repository.DetectionRepository
	Events        handler.EventHub
	Logger        *logger.Logger
}

// SetupRoutes registers the detection endpoint, the capture browsing API,
// the event stream and the operational endpoints.
func SetupRoutes(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Post("/detect", handler.DetectHandler(deps.Processor, deps.Logger))
	r.Get("/health", handler.HealthHandler(deps.Workers, deps.Logger))

	r.Route("/api", func(r chi.Router) {
		if deps.CaptureRepo != nil {
			r.Get("/captures", handler.ListCapturesHandler(deps.CaptureRepo, deps.DetectionRepo, deps.Logger))
		}
		r.Get("/captures/{filename}", handler.ViewCaptureHandler(deps.Captures, deps.Logger))
		r.Delete("/captures/{filename}", handler.DeleteCaptureHandler(deps.Captures, deps.Logger))
		if deps.Events != nil {
			r.Get("/events", handler.EventsWebsocketHandler(deps.Events, deps.Logger))
		}
	})

	r.Get("/logs/{level}", handler.ShowLogsHandler(deps.Logger))
	r.Post("/logs/{level}/clear", handler.ClearLogsHandler(deps.Logger))

	return r
}
