package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/outpasshq/notify/internal/authz"
	"github.com/outpasshq/notify/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(notif *handlers.NotificationHandler, jwtSecret string) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	auth := authz.JWTMiddleware(jwtSecret)

	// Popup stream; the token rides the query string here.
	router.Handle("/ws", auth(http.HandlerFunc(notif.Stream))).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth)
	api.HandleFunc("/notifications", notif.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications", notif.Create).Methods(http.MethodPost)
	api.HandleFunc("/notifications/history", notif.History).Methods(http.MethodGet)
	api.HandleFunc("/notifications/history", notif.ClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/notifications/unread", notif.Unread).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationID}/read", notif.MarkRead).Methods(http.MethodPost)

	return router
}
