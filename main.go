package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"task-api-v1/api"
	"task-api-v1/auth"
	"task-api-v1/config"
	"task-api-v1/handlers"
	"task-api-v1/middleware"
	"task-api-v1/store"
)

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Task Management API",
		"version": "1.0.0",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func newRouter(h *handlers.Handlers, gate *middleware.Authenticator) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", rootHandler).Methods("GET")
	router.HandleFunc("/health", healthHandler).Methods("GET")

	authRoutes := router.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", h.Register).Methods("POST")
	authRoutes.HandleFunc("/login", h.Login).Methods("POST")
	authRoutes.Handle("/me", gate.Authenticate(http.HandlerFunc(h.Me))).Methods("GET")

	tasks := router.PathPrefix("/tasks").Subrouter()
	tasks.Use(gate.Authenticate)
	tasks.HandleFunc("", h.ListTasks).Methods("GET")
	tasks.HandleFunc("", h.CreateTask).Methods("POST")
	tasks.HandleFunc("/stats/summary", h.TaskStats).Methods("GET")
	tasks.HandleFunc("/{id}", h.GetTask).Methods("GET")
	tasks.HandleFunc("/{id}", h.UpdateTask).Methods("PUT")
	tasks.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")

	users := router.PathPrefix("/users").Subrouter()
	users.Use(gate.Authenticate, middleware.RequireRole(api.RoleAdmin))
	users.HandleFunc("", h.ListUsers).Methods("GET")

	return router
}

func main() {
	cfg := config.Load()

	db := store.InitDB(cfg.DBSource)
	defer db.Close()

	rdb := store.InitRedis(cfg.RedisAddr)
	if rdb != nil {
		defer rdb.Close()
	}

	tokens, err := auth.NewTokenService([]byte(cfg.SecretKey), cfg.Algorithm)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize token service: %v", err)
	}

	gate := &middleware.Authenticator{
		Tokens:     tokens,
		LookupUser: store.GetUserByEmail,
	}
	h := handlers.NewHandlers(tokens, rdb, cfg.TokenTTL)

	router := newRouter(h, gate)

	cors := ghandlers.CORS(
		ghandlers.AllowedOrigins(cfg.AllowedOrigins),
		ghandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		ghandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		ghandlers.AllowCredentials(),
	)

	log.Printf("Server listening on port %s", cfg.Port)
	err = http.ListenAndServe(":"+cfg.Port, ghandlers.LoggingHandler(os.Stdout, cors(router)))
	if err != nil {
		log.Fatalf("FATAL: Server failed to start: %v", err)
	}
}
