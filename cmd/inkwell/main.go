// Command main is the entry point for the Inkwell client gateway.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/server"

	"github.com/gofiber/fiber/v2"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create the gateway with dependency injection
	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create gateway: %v", err)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Inkwell Gateway",
		BodyLimit: 2 * 1024 * 1024, // 2MB limit
	})

	// Setup middleware and routes
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	// Restore the persisted session and start the background expiry watcher.
	watcherCtx, stopWatcher := context.WithCancel(context.Background())
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	state := srv.Sessions().Initialize(initCtx)
	cancelInit()
	if state.IsAuthenticated {
		log.Printf("Restored session for %s", state.User.Username)
	}
	srv.Sessions().StartExpiryWatcher(watcherCtx)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gateway...")
		stopWatcher()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Gateway shutdown error: %v", err)
		}
		if err := srv.Close(); err != nil {
			log.Printf("Snapshot store close error: %v", err)
		}
	}()

	// Start serving the UI shell
	log.Printf("Gateway starting on port %s...", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
