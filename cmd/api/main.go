// Command api serves only the JSON API, for scripting against the dashboards
// without the HTML front end.
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"minidash/internal/config"
	"minidash/internal/container"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Shutdown(ctx)

	if cfg.Database.Enabled() {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := c.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to attach database: %v", err)
		}
	}
	if err := c.Init(ctx); err != nil {
		log.Fatalf("Failed to load dashboards: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	if c.Metrics != nil {
		r.Handle("/metrics", c.Metrics.Handler())
	}
	r.Mount("/", c.API)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.APIPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Starting API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("Server failed:", err)
	}
}
