package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/rs/cors"

	"github.com/rpattn/landtitles/internal/config"
	"github.com/rpattn/landtitles/internal/export"
	"github.com/rpattn/landtitles/internal/graphql"
	"github.com/rpattn/landtitles/internal/httpx"
	"github.com/rpattn/landtitles/internal/ingestion"
	"github.com/rpattn/landtitles/internal/logger"
	"github.com/rpattn/landtitles/internal/middleware"
)

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env, cfg.Log.Level)

	ingestService := ingestion.NewService(
		ingestion.WithHostDatabaseDrivers(cfg.Ingestion.AllowDatabaseFiles),
		ingestion.WithODBCDriver(cfg.Ingestion.AccessODBCDriver),
		ingestion.WithTempDir(cfg.Ingestion.TempDir),
		ingestion.WithMaxUploadBytes(cfg.Ingestion.MaxUploadBytes),
		ingestion.WithLogger(log.With(map[string]interface{}{"component": "ingestion"})),
	)
	exportService := export.NewService(
		export.WithResultTTL(cfg.Export.ResultTTL),
		export.WithDownloadTokenTTL(cfg.Export.DownloadTTL),
	)

	mux := http.NewServeMux()
	mux.Handle("/process", ingestion.NewHTTPHandler(ingestService, exportService,
		ingestion.WithPreviewRows(cfg.Export.PreviewRows),
		ingestion.WithHandlerLogger(log),
	))
	mux.Handle("/exports/files/", export.NewHTTPHandler(exportService))
	mux.Handle("/query", graphql.NewHandler(
		graphql.NewResolver(exportService, cfg.Export.PreviewRows),
		log.With(map[string]interface{}{"component": "graphql"}),
	))
	mux.Handle("/playground", playground.Handler("Land titles", "/query"))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", middleware.RequestIDHeader},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(middleware.LoggingMiddleware(log)(mux)),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("starting server", map[string]interface{}{
			"addr":                 addr,
			"env":                  cfg.Server.Env,
			"allow_database_files": cfg.Ingestion.AllowDatabaseFiles,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", err, nil)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", err, nil)
	}

	log.Info("server exited", nil)
}
