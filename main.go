// Entry point for the raincast CLI
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/weatherops/raincast/utils"
)

const raincastVersion = "v0.1.0"

func main() {
	// Load optional .env before the config manager reads the environment
	_ = godotenv.Load()

	if err := utils.LoadGlobalConfig("config.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	config := utils.GetConfigManager().GetConfig()
	if err := utils.InitLogger(config.Logging); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		// No arguments: run the offline pipeline once
		runPipeline(config)
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp()
		return
	case "--version", "-v":
		fmt.Println("raincast version:", raincastVersion)
		return
	case "--pipeline":
		runPipeline(config)
		return
	case "--server":
		port := fmt.Sprintf("%d", config.Server.Port)
		if len(args) > 1 {
			port = args[1]
		}
		runServer(config, port)
		return
	default:
		fmt.Fprintln(os.Stderr, "Unknown argument. Use --help for usage.")
		os.Exit(1)
	}
}

// runPipeline executes preprocessing and training once and exits
// non-zero on failure so CI and cron wrappers can detect it
func runPipeline(config *utils.Config) {
	runStore := openRunStore(config)
	if runStore != nil {
		defer runStore.Close()
	}

	runner := NewPipelineRunner(config, runStore)
	if err := runner.Run(context.Background(), "manual"); err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline failed: %v\n", err)
		os.Exit(1)
	}
}

// openRunStore opens the run-history store when persistence is enabled.
// Returns nil when disabled or unavailable; history is best effort.
func openRunStore(config *utils.Config) *utils.RunStore {
	if !config.Persistence.Enabled {
		return nil
	}
	runStore, err := utils.NewRunStore(config.Persistence.DatabasePath)
	if err != nil {
		utils.GetLogger().Warn("Run store unavailable, continuing without history",
			utils.Error(err), utils.Component("main"))
		return nil
	}
	return runStore
}

func runServer(config *utils.Config, port string) {
	server, err := NewServer(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	var handler http.Handler = server.router
	if config.Server.EnableCORS {
		c := cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
		})
		handler = c.Handler(handler)
	}

	httpServer := &http.Server{
		Addr:         config.Server.Host + ":" + port,
		Handler:      handler,
		ReadTimeout:  time.Duration(config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine so shutdown signals can be handled
	go func() {
		utils.GetLogger().Info("Server listening",
			utils.String("addr", httpServer.Addr),
			utils.Component("main"))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.GetLogger().Info("Shutting down server", utils.Component("main"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	server.Shutdown()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	utils.GetLogger().Info("Server exited", utils.Component("main"))
}

func printHelp() {
	fmt.Print(`raincast: train and serve a rain prediction model

Usage:
  raincast              Run the preprocessing and training pipeline
  raincast --pipeline   Same as running with no arguments
  raincast --server [port]
                        Serve the prediction form (default port from config)
  raincast --version    Print version
  raincast --help       Show this help

Configuration is read from config.yaml in the working directory, with
RAINCAST_* environment variables taking precedence.
`)
}
