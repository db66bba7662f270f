// Package http assembles the mux router: public auth routes, the
// authenticated API surface and the operational endpoints.
package http

import (
	"net/http"

	"textile-backend/internal/handlers"
	"textile-backend/internal/middleware"
	"textile-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the router wires together.
type Deps struct {
	Auth          *middleware.AuthMiddleware
	AuthHandler   *handlers.AuthHandler
	Users         *handlers.UserHandler
	Lots          *handlers.LotHandler
	Bales         *handlers.BaleHandler
	Checklists    *handlers.ChecklistHandler
	Modifications *handlers.ModificationHandler
	Shipments     *handlers.ShipmentHandler
	Health        *handlers.HealthHandler
	Actions       *handlers.ActionLogHandler
	ServeWS       http.HandlerFunc
}

func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Public endpoints
	router.HandleFunc("/healthz", d.Health.Healthz).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/auth/signup", d.AuthHandler.Signup).Methods("POST")
	router.HandleFunc("/auth/login", d.AuthHandler.Login).Methods("POST")

	// Live event feed. Terminals send the bearer token on the handshake
	// request like any other call.
	router.Handle("/ws/events", d.Auth.Authenticate(d.ServeWS))

	// Authenticated API
	api := router.PathPrefix("/api").Subrouter()
	api.Use(d.Auth.Authenticate)

	api.HandleFunc("/auth/me", d.AuthHandler.Me).Methods("GET")

	api.HandleFunc("/lots", d.Lots.Create).Methods("POST")
	api.HandleFunc("/lots", d.Lots.List).Methods("GET")
	api.HandleFunc("/lots/{id:[0-9]+}", d.Lots.Get).Methods("GET")
	api.HandleFunc("/lots/{id:[0-9]+}/status", d.Lots.SetStatus).Methods("PATCH")

	api.HandleFunc("/bales", d.Bales.Register).Methods("POST")
	api.HandleFunc("/bales", d.Bales.List).Methods("GET")
	api.HandleFunc("/bales/qr/{code}", d.Bales.GetByQR).Methods("GET")
	api.HandleFunc("/bales/{id:[0-9]+}", d.Bales.Get).Methods("GET")
	api.HandleFunc("/bales/{id:[0-9]+}/grade", d.Bales.Grade).Methods("POST")
	api.HandleFunc("/bales/{id:[0-9]+}/dispose", d.Bales.Dispose).Methods("POST")

	api.HandleFunc("/checklists", d.Checklists.Create).Methods("POST")
	api.HandleFunc("/checklists", d.Checklists.List).Methods("GET")
	api.HandleFunc("/checklists/{id:[0-9]+}", d.Checklists.Get).Methods("GET")
	api.HandleFunc("/checklists/{id:[0-9]+}", d.Checklists.Delete).Methods("DELETE")
	api.HandleFunc("/checklists/{id:[0-9]+}/bales", d.Checklists.AddBales).Methods("POST")
	api.HandleFunc("/checklists/{id:[0-9]+}/items/{itemId:[0-9]+}", d.Checklists.RemoveItem).Methods("DELETE")
	api.HandleFunc("/checklists/{id:[0-9]+}/confirm", d.Checklists.Confirm).Methods("POST")
	api.HandleFunc("/checklists/{id:[0-9]+}/lock", d.Checklists.Lock).Methods("POST")
	api.HandleFunc("/checklists/{id:[0-9]+}/modifications", d.Checklists.RequestModification).Methods("POST")

	api.HandleFunc("/modifications", d.Modifications.List).Methods("GET")
	api.HandleFunc("/modifications/{id:[0-9]+}", d.Modifications.Get).Methods("GET")
	api.HandleFunc("/modifications/{id:[0-9]+}/approve", d.Modifications.Approve).Methods("POST")
	api.HandleFunc("/modifications/{id:[0-9]+}/reject", d.Modifications.Reject).Methods("POST")

	api.HandleFunc("/shipments", d.Shipments.Create).Methods("POST")
	api.HandleFunc("/shipments", d.Shipments.List).Methods("GET")
	api.HandleFunc("/shipments/{id:[0-9]+}", d.Shipments.Get).Methods("GET")
	api.HandleFunc("/shipments/{id:[0-9]+}/status", d.Shipments.SetStatus).Methods("PATCH")
	api.HandleFunc("/shipments/{id:[0-9]+}/documents", d.Shipments.SetDocument).Methods("PATCH")
	api.HandleFunc("/shipments/{id:[0-9]+}/complete", d.Shipments.Complete).Methods("POST")

	api.HandleFunc("/system/stats", d.Health.SystemStats).Methods("GET")

	// Admin-only surface
	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.Use(d.Auth.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/users", d.Users.Create).Methods("POST")
	admin.HandleFunc("/users", d.Users.List).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}/active", d.Users.SetActive).Methods("PATCH")
	admin.HandleFunc("/actions", d.Actions.List).Methods("GET")

	return router
}
