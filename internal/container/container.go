package container

import (
	"context"
	"fmt"
	"log"
	"strings"

	"minidash/adapters/api"
	"minidash/adapters/memory"
	"minidash/adapters/postgres"
	"minidash/adapters/tabular"
	"minidash/app"
	"minidash/domain/dashboard"
	"minidash/internal/catalog"
	"minidash/internal/config"
	"minidash/internal/telemetry"
	"minidash/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB      *sqlx.DB
	Metrics *telemetry.Metrics

	// Data access
	Definitions []dashboard.Definition
	Loader      *tabular.Loader
	AnswerRepo  ports.AnswerRepository

	// Application
	Service *app.DashboardService
	API     *api.Handler
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
	}

	return c, nil
}

// InitWithDatabase attaches a Postgres connection. Answers are then persisted there
// and sql: sources become available.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	c.DB = db
	return nil
}

// Init loads the dashboard catalog, wires the loader and service and loads every
// dataset. Call InitWithDatabase first when a database is configured.
func (c *Container) Init(ctx context.Context) error {
	defs, err := catalog.Load(c.Config.Data.DashboardsFile)
	if err != nil {
		return fmt.Errorf("failed to load dashboard catalog: %w", err)
	}
	c.Definitions = defs

	if c.Config.Metrics.Enabled {
		c.Metrics = telemetry.New()
	}

	if err := c.initLoader(ctx); err != nil {
		return fmt.Errorf("failed to initialize loader: %w", err)
	}
	c.initRepositories()

	c.Service = app.NewDashboardService(c.Loader, c.AnswerRepo, c.Metrics, app.ServiceConfig{
		PreviewLimit:    c.Config.Data.PreviewLimit,
		LoadConcurrency: c.Config.Data.LoadConcurrency,
		SourceOverrides: c.Config.Data.SourceOverrides,
	})
	if err := c.Service.LoadAll(ctx, c.Definitions); err != nil {
		return err
	}
	c.API = api.NewHandler(c.Service)

	log.Printf("Container initialized with %d dashboards", len(c.Definitions))
	return nil
}

func (c *Container) initLoader(ctx context.Context) error {
	opts := []tabular.Option{
		tabular.WithBundled(catalog.Bundled()),
		tabular.WithTimeout(c.Config.Data.SourceTimeout),
	}
	if c.DB != nil {
		opts = append(opts, tabular.WithDB(c.DB))
	}
	if c.usesObjectStorage() {
		client, err := tabular.NewS3Client(ctx, c.Config.S3)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		opts = append(opts, tabular.WithObjectStore(client))
		log.Printf("S3 object storage enabled (region %s)", c.Config.S3.Region)
	}
	c.Loader = tabular.NewLoader(opts...)
	return nil
}

// usesObjectStorage reports whether any dashboard reads from s3://
func (c *Container) usesObjectStorage() bool {
	for _, def := range c.Definitions {
		if strings.HasPrefix(def.Source, "s3://") {
			return true
		}
	}
	for _, uri := range c.Config.Data.SourceOverrides {
		if strings.HasPrefix(uri, "s3://") {
			return true
		}
	}
	return false
}

// initRepositories picks Postgres when a database is attached, memory otherwise
func (c *Container) initRepositories() {
	if c.DB != nil {
		c.AnswerRepo = postgres.NewAnswerRepository(c.DB)
		log.Printf("Answers are stored in Postgres")
		return
	}
	c.AnswerRepo = memory.NewAnswerRepository()
	log.Printf("No database configured, answers are kept in memory")
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
