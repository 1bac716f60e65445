package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericksa/clauselens/internal/app"
	"github.com/ericksa/clauselens/internal/config"
	"github.com/ericksa/clauselens/internal/middleware"
	"github.com/ericksa/clauselens/pkg/mcp"
	"github.com/gorilla/mux"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	handlers := &api{
		service:  a.Service,
		audit:    a.Auditor,
		maxBytes: cfg.Fetch.MaxBytes,
	}
	if a.Store != nil {
		handlers.store = a.Store
	}

	router := newRouter(handlers, mcp.NewHandler(a.Service, a.Auditor, version), cfg)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      middleware.CORS(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting clauselens gateway on %s (provider %s)", cfg.Server.Addr, cfg.Provider.Name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
		return
	}
	log.Println("Server stopped")
}

func newRouter(handlers *api, mcpHandler http.Handler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	middleware.Register(router)

	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	router.HandleFunc("/analyze", handlers.analyzeURL).Methods(http.MethodGet)
	router.HandleFunc("/analyze", handlers.analyzeUpload).Methods(http.MethodPost)
	router.HandleFunc("/chat", handlers.chat).Methods(http.MethodGet)
	router.HandleFunc("/upload", handlers.upload).Methods(http.MethodPost)

	// MCP endpoint
	router.PathPrefix("/mcp").Handler(mcpHandler)

	// Configuration API
	router.PathPrefix("/configure").Handler(config.NewConfigAPI(cfg).Router())

	return router
}
