package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/omegonstudio/fotos-patagonia-sub000/internal/bus"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/cache"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/config"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/events"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/http/handlers/albums"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/http/handlers/photos"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/http/handlers/users"
	wshandler "github.com/omegonstudio/fotos-patagonia-sub000/internal/http/handlers/websocket"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/http/middleware"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/services/media"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/storage/postgres"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/websocket"
)

// @title Fotos Patagonia API
// @version 1.0
// @description Storefront API for event and tourism photography. Issues
// @description presigned upload credentials, registers completed batches and
// @description serves the public catalog.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// object storage setup
	mediaService, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}
	slog.Info("Connected to MinIO")

	// redis setup
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	cacheService := cache.NewCacheService(storage, redisClient)
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	// websocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// optional NATS mirror for catalog events
	var eventBus events.Bus
	if cfg.NATS.Enabled {
		natsClient, err := bus.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatal("Failed to connect to NATS:", err)
		}
		defer natsClient.Close()
		slog.Info("Connected to NATS", slog.String("url", cfg.NATS.URL))
		eventBus = natsClient
	}

	publisher := events.NewEventPublisher(hub, eventBus, cfg.NATS.Subject)

	// setup server
	router := http.NewServeMux()
	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Fotos Patagonia API"))
	})

	router.HandleFunc("POST /signup", users.SignUp(storage))
	router.HandleFunc("POST /login", users.Login(storage, cfg.JWTSecret))

	router.HandleFunc("GET /albums", albums.ListAlbums(cacheService))
	router.HandleFunc("GET /albums/{id}/photos", albums.AlbumPhotos(storage, cacheService, mediaService))
	router.Handle("POST /albums", auth(albums.CreateAlbum(storage)))

	router.HandleFunc("GET /photos", photos.ListPhotos(cacheService, mediaService))
	router.Handle("POST /request-upload-urls",
		auth(rateLimits.RateLimitedHandler("upload-urls", photos.RequestUploadURLs(mediaService))))
	router.Handle("POST /photos/complete-upload",
		auth(rateLimits.RateLimitedHandler("complete-upload", photos.CompleteUpload(storage, publisher, cacheService))))

	router.HandleFunc("GET /ws", wshandler.Serve(hub, cfg.JWTSecret))
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
