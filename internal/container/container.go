package container

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"goscout/adapters/connectors"
	"goscout/adapters/excel"
	"goscout/adapters/llm"
	"goscout/adapters/notify"
	"goscout/adapters/postgres"
	"goscout/ai"
	"goscout/app"
	"goscout/internal/api"
	"goscout/internal/config"
	"goscout/internal/report"
	"goscout/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB       *sqlx.DB
	Registry *connectors.Registry

	// Repositories (data access layer)
	ItemRepo       ports.ItemRepository
	ArtifactRepo   ports.ArtifactRepository
	ValidationRepo ports.ValidationRepository
	PlanRepo       ports.PlanRepository
	CritiqueRepo   ports.CritiqueRepository
	ActivityRepo   ports.ActivityRepository
	RunRepo        ports.RunRepository

	// Pipeline
	LLM          ports.LLMClient
	Profiles     ai.StageProfiles
	Orchestrator *app.Orchestrator

	// Surfaces
	Reports  *report.Generator
	Exporter *excel.Exporter
	Server   *api.Server
}

// New creates a container and wires every component.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	c := &Container{Config: cfg}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	c.DB = db

	c.initRepositories()
	if err := c.initConnectors(); err != nil {
		return nil, err
	}
	if err := c.initPipeline(); err != nil {
		return nil, err
	}
	c.initSurfaces()

	log.Printf("Container initialized with %d connectors", len(c.Registry.All()))
	return c, nil
}

func (c *Container) initRepositories() {
	c.ItemRepo = postgres.NewItemRepository(c.DB)
	c.ArtifactRepo = postgres.NewArtifactRepository(c.DB)
	c.ValidationRepo = postgres.NewValidationRepository(c.DB)
	c.PlanRepo = postgres.NewPlanRepository(c.DB)
	c.CritiqueRepo = postgres.NewCritiqueRepository(c.DB)
	c.ActivityRepo = postgres.NewActivityRepository(c.DB)
	c.RunRepo = postgres.NewRunRepository(c.DB)
}

func (c *Container) initConnectors() error {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	c.Registry = connectors.NewRegistry()
	c.Registry.Register(connectors.NewArxivConnector(httpClient))
	c.Registry.Register(connectors.NewCrossrefConnector(httpClient, c.Config.Connectors.CrossrefMailto))
	return nil
}

func (c *Container) initPipeline() error {
	client, err := llm.NewClient(llm.Config{
		APIKey:      c.Config.AI.APIKey,
		BaseURL:     c.Config.AI.BaseURL,
		Model:       c.Config.AI.Model,
		Timeout:     c.Config.AI.Timeout,
		Temperature: c.Config.AI.Temperature,
		MaxTokens:   c.Config.AI.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	c.LLM = client

	c.Profiles = ai.DefaultProfiles()
	if c.Config.AI.ProfilesFile != "" {
		profiles, err := ai.LoadProfiles(c.Config.AI.ProfilesFile)
		if err != nil {
			return fmt.Errorf("failed to load stage profiles: %w", err)
		}
		c.Profiles = profiles
	}

	pipeline := c.Config.Pipeline
	discovery := app.NewDiscoveryService(c.Registry, c.ItemRepo, c.ActivityRepo,
		c.Config.Connectors.MaxResults, pipeline.DedupThreshold)
	scoring := app.NewScoringService(c.LLM, c.Profiles.For("scoring"), c.ItemRepo,
		c.ActivityRepo, pipeline.HighThreshold, pipeline.MediumThreshold)
	generation := app.NewGenerationService(c.LLM, c.Profiles.For("generation"),
		c.ArtifactRepo, c.ActivityRepo)
	validation := app.NewValidationService(c.LLM, c.Profiles.For("validation"),
		c.Registry, c.ArtifactRepo, c.ValidationRepo, c.ActivityRepo)
	planning := app.NewPlanningService(c.LLM, c.Profiles.For("planning"),
		c.ArtifactRepo, c.ValidationRepo, c.PlanRepo, c.ActivityRepo, pipeline.Ventures)
	critique := app.NewCritiqueService(c.LLM, c.Profiles.For("critique"),
		c.ArtifactRepo, c.PlanRepo, c.CritiqueRepo, c.ActivityRepo)

	var notifier ports.Notifier
	if c.Config.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(c.Config.Notify.WebhookURL)
	}

	c.Orchestrator = app.NewOrchestrator(discovery, scoring, generation, validation, planning, critique,
		c.ItemRepo, c.ArtifactRepo, c.PlanRepo, c.RunRepo, c.ActivityRepo, notifier,
		pipeline.MaxGenerationItems, pipeline.MaxConcurrentCalls)
	return nil
}

func (c *Container) initSurfaces() {
	c.Reports = report.NewGenerator(c.ItemRepo, c.ArtifactRepo, c.PlanRepo, c.RunRepo)
	c.Exporter = excel.NewExporter(c.ItemRepo, c.ArtifactRepo, c.PlanRepo)
	c.Server = api.NewServer(c.Orchestrator, c.Reports, c.Exporter)
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
