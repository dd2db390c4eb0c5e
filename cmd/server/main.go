package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voyago/travel-planner/internal/api"
	"voyago/travel-planner/internal/config"
	"voyago/travel-planner/internal/repository/mongo"
	"voyago/travel-planner/internal/repository/redis"
	"voyago/travel-planner/internal/service"
	"voyago/travel-planner/internal/sync"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Travel Planner Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Printf("Configuration loaded (installation %q, database %q).",
		cfg.Installation.ID, cfg.DatabaseName())

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.DatabaseName())
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureTripIndexes(ctx, appDB.Collection("trips"))
	}()

	// --- Override Store ---
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Override store connection established.")

	// --- Initialize Repositories ---
	tripRepo := mongo.NewMongoTripRepository(appDB)
	itineraryRepo := mongo.NewMongoItineraryRepository(appDB)
	overrideRepo := redis.NewRedisOverrideRepository(redisClient, cfg.Redis.Prefix)

	// --- Initialize Services ---
	sessionService := service.NewSessionService(cfg.JWT.Secret, cfg.JWT.Expiration)
	rateService := service.NewRateService(cfg.Rates, overrideRepo)

	// --- Sync Layer ---
	registry := sync.NewRegistry(tripRepo, itineraryRepo)
	defer registry.Close()

	catalogCtx, catalogCancel := context.WithCancel(context.Background())
	defer catalogCancel()
	catalog := sync.NewCatalog(tripRepo)
	if err := catalog.Start(catalogCtx); err != nil {
		log.Fatalf("FATAL: Could not subscribe to trip catalog: %v", err)
	}
	log.Println("Trip catalog subscription active.")

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, sessionService, rateService, registry, catalog)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
