package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"palermoJusticeAPI/handlers"
	"palermoJusticeAPI/internal/config"
	"palermoJusticeAPI/internal/logger"
	"palermoJusticeAPI/middleware"
	"palermoJusticeAPI/services"

	_ "net/http/pprof"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	middleware.InitPrometheus()
	middleware.SetRateLimit(cfg.RatePerSecond, cfg.RateBurst)

	roomManager := services.NewRoomManager()

	roomsHandler := handlers.NewRoomsHandler(roomManager)
	docsHandler := handlers.NewDocsHandler()

	r := mux.NewRouter()

	// Websocket joins bypass the rate limiter; a game sends frames far
	// faster than any HTTP budget allows.
	r.HandleFunc("/api/v1/rooms/ws/{roomID}", roomsHandler.JoinRoom)

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "palermo-justice-api"}`))
	}).Methods("GET")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rooms/create", roomsHandler.CreateRoom).Methods("POST")
	api.HandleFunc("/rooms/public", roomsHandler.GetPublicRooms).Methods("GET")
	api.HandleFunc("/rooms/{roomID}", roomsHandler.GetRoomInfo).Methods("GET")
	api.HandleFunc("/rules", docsHandler.ServeRules).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.Infof("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	logger.Log.Infof("Got signal: %v", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server shutdown error: %v", err)
	}

	logger.Log.Infof("Server shutdown complete")
}
