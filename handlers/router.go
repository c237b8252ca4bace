package handlers

import (
	"github.com/gorilla/mux"

	"github.com/skotte/skyfall/skyfall-server/middleware"
)

func NewRouter(a *API) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/api/register", a.Register).Methods("POST")
	r.HandleFunc("/api/login", a.Login).Methods("POST")
	r.HandleFunc("/api/refresh/token", a.RefreshToken).Methods("POST")
	r.HandleFunc("/ws/{token}", a.WsHandler)

	// Secured routes
	secured := r.PathPrefix("/api").Subrouter()
	secured.Use(middleware.JWTValidation(a.Cfg.JWTSecret))
	secured.HandleFunc("/matches", a.FetchUserMatches).Methods("GET")
	secured.HandleFunc("/match/{matchID}", a.FetchMatchEvents).Methods("GET")
	secured.HandleFunc("/logout", a.Logout).Methods("POST")

	return r
}
