package main

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"jellybridge/api"
	"jellybridge/config"
	"jellybridge/handlers"
	"jellybridge/internal/cache"
	"jellybridge/models"
	"jellybridge/services/addon"
	"jellybridge/services/jellyfin"
	"jellybridge/services/metadata"
	"jellybridge/utils"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	if cfg.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	libraryStore := cache.NewStore(filepath.Join(cfg.CacheDir, "jellyfin"))
	metadataStore := cache.NewStore(filepath.Join(cfg.CacheDir, "tmdb"))

	client := jellyfin.NewClient(cfg.JellyfinServer, cfg.JellyfinUser, cfg.JellyfinPassword, nil)
	library := jellyfin.NewService(client, libraryStore)

	resolver := metadata.NewResolver(cfg.TMDBAPIKey, cfg.Locale, metadataStore, nil)
	if resolver.Enabled() {
		log.Printf("[main] TMDB enrichment enabled (locale %s)", cfg.Locale)
	} else {
		log.Printf("[main] TMDB enrichment disabled: no API key configured")
	}

	aggregator := addon.NewService(library, resolver, resolver.Localizer(), cfg.CatalogConcurrency)
	handler := handlers.NewAddonHandler(aggregator, models.DefaultManifest())

	router := utils.NewRouter("jellybridge addon")
	router.HandleFunc("/manifest.json", handler.Manifest).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/catalog/{type}/{id}.json", handler.Catalog).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/meta/{type}/{id}.json", handler.Meta).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/stream/{type}/{id}.json", handler.Stream).Methods(http.MethodGet, http.MethodOptions)

	limiter := api.NewIPRateLimiter(rate.Limit(20), 40)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.RateLimitHandler(limiter, router),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("[main] addon listening on :%d", cfg.Port)
	log.Printf("[main] manifest available at %s/manifest.json", cfg.PublicURL)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("[main] server: %v", err)
	}
}
