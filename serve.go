package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/21namanpandey/e-library/config"
	"github.com/21namanpandey/e-library/handlers"
	"github.com/21namanpandey/e-library/middleware"
	"github.com/21namanpandey/e-library/service"
	"github.com/21namanpandey/e-library/store"
	"github.com/21namanpandey/e-library/tempstore"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	cfg.LogSummary(logger)

	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect", "err", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongodb indexes: %w", err)
	}

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.StorageDriver, err)
	}
	temp, err := tempstore.New(cfg.UploadDir, logger)
	if err != nil {
		return err
	}
	tokens := service.NewTokenIssuer(cfg.JWTSecret)

	errs := &handlers.ErrorWriter{Production: cfg.IsProduction(), Logger: logger}
	authHandler := &handlers.AuthHandler{
		Users:  service.NewUserService(db, tokens, logger),
		Errors: errs,
	}
	booksHandler := &handlers.BooksHandler{
		Books:        service.NewBookService(db, storage, temp, logger),
		Stager:       temp,
		MaxFileBytes: cfg.MaxUploadBytes(),
		Errors:       errs,
		Logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Welcome to elib apis"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", authHandler.Register)
		r.Post("/users/login", authHandler.Login)

		r.Get("/books", booksHandler.List)
		r.Get("/books/{bookId}", booksHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/books", booksHandler.Create)
			r.Patch("/books/{bookId}", booksHandler.Update)
			r.Delete("/books/{bookId}", booksHandler.Delete)
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newObjectStorage(ctx context.Context, cfg *config.Config) (service.ObjectStorage, error) {
	switch cfg.StorageDriver {
	case "minio":
		return service.NewMinioService(ctx, service.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.StoragePublicURL,
		})
	default:
		return service.NewS3Service(ctx, service.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
			PublicURL:       cfg.StoragePublicURL,
		})
	}
}
