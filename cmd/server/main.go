package main // Entry point package

import (
	"context" // context for the schema bootstrap call
	"log"     // Logging library
	"time"    // bootstrap timeout

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/auth-service/internal/config"     // Internal config loader
	"github.com/iliyamo/auth-service/internal/database"   // MySQL connection helper
	"github.com/iliyamo/auth-service/internal/handler"    // HTTP handlers
	"github.com/iliyamo/auth-service/internal/queue"      // registration event consumer
	"github.com/iliyamo/auth-service/internal/repository" // user and token repositories
	"github.com/iliyamo/auth-service/internal/router"     // Internal router setup
	"github.com/iliyamo/auth-service/internal/service"    // auth workflows
)

func main() {
	cfg := config.Load() // Load environment config (and .env in development)

	// MySQL holds the account records; the unique email index it carries is
	// the real guard against duplicate registrations.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("mysql schema: %v", err)
	}
	cancel()

	// Redis holds the refresh token records. Unlike optional caching, the
	// token store cannot run without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(rdb)
	svc := service.NewAuthService(cfg, users, tokens, service.PublishUserRegistered)
	auth := handler.NewAuthHandler(cfg, svc)

	// Consume user.registered events in the background; the consumer runs
	// its own reconnect loop and never takes the server down.
	go func() {
		if err := queue.StartRegistrationConsumer(); err != nil {
			log.Printf("registration consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.AccessSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
