package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"snowgate/clients"
	snowflakeclient "snowgate/clients/snowflake"
	"snowgate/config"
	"snowgate/handlers"
	"snowgate/middleware"
	"snowgate/services/commands"
	"snowgate/services/employees"
	"snowgate/services/responder"
	"snowgate/services/warehouse"
	"snowgate/tasks"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.AlertConfig{
		WebhookURL:  cfg.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "snowgate",
	})

	var snowflakeClient clients.SnowflakeClient
	if cfg.SnowflakeConfig.Mock {
		snowflakeClient = snowflakeclient.NewMockModeClient()
	} else {
		snowflakeClient, err = snowflakeclient.NewSnowflakeClient(cfg.SnowflakeConfig)
		if err != nil {
			return err
		}
	}

	warehouseService := warehouse.NewWarehouseService(snowflakeClient)
	employeesService := employees.NewEmployeesService(snowflakeClient)
	commandsService := commands.NewCommandsService(warehouseService)
	responderService := responder.NewResponderService()
	runner := tasks.NewRunner(alertMiddleware)

	slackHandler := handlers.NewSlackWebhooksHandler(cfg.SlackConfig, commandsService, responderService, runner, alertMiddleware)
	adminHandler := handlers.NewAdminAPIHandler(warehouseService, employeesService)

	router := mux.NewRouter()
	slackHandler.SetupEndpoints(router)
	adminHandler.SetupEndpoints(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server, runner)
}

func handleGracefulShutdown(server *http.Server, runner *tasks.Runner) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
	}

	// Give in-flight deferred tasks a chance to finish and deliver
	if err := runner.Shutdown(ctx); err != nil {
		log.Printf("❌ Task runner shutdown error: %v", err)
	}

	log.Printf("✅ Shutdown complete")
	return nil
}
