package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"rendezvous/internal/delivery/http/controllers"
	"rendezvous/internal/delivery/http/middleware"
	"rendezvous/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Read endpoints take an optional token so public rendez-vous stay reachable
// anonymously; write endpoints require one.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	rdv *controllers.RendezVousController,
	notifications *controllers.NotificationController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	optional := middleware.OptionalAuth(verifier, logger)

	// Rendez-vous
	mux.HandleFunc("POST /rendez-vous", auth(rdv.Create))
	mux.HandleFunc("GET /rendez-vous", optional(rdv.List))
	mux.HandleFunc("GET /rendez-vous/types", rdv.ListTypes)
	mux.HandleFunc("GET /rendez-vous/{rdvID}", optional(rdv.GetByID))
	mux.HandleFunc("PATCH /rendez-vous/{rdvID}", auth(rdv.Update))
	mux.HandleFunc("DELETE /rendez-vous/{rdvID}", auth(rdv.Delete))

	// Scheduling workflow
	mux.HandleFunc("PUT /rendez-vous/{rdvID}/preference", auth(rdv.SetPreference))
	mux.HandleFunc("POST /rendez-vous/{rdvID}/publish", auth(rdv.Publish))
	mux.HandleFunc("POST /rendez-vous/{rdvID}/date", auth(rdv.FixDate))
	mux.HandleFunc("POST /rendez-vous/{rdvID}/report", auth(rdv.AttachReport))
	mux.HandleFunc("GET /rendez-vous/{rdvID}/ical", auth(rdv.DownloadICal))

	// Notifications
	mux.HandleFunc("GET /notifications", auth(notifications.ListMine))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
