package container

import (
	"fmt"

	"goprove/adapters/memory"
	"goprove/adapters/postgres"
	"goprove/app"
	"goprove/domain/eligibility"
	"goprove/internal"
	"goprove/internal/config"
	"goprove/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	CandidateRepo ports.CandidateRepository
	ReportRepo    ports.ReportRepository
	Ledger        ports.LedgerPort
	Lineage       ports.LineagePort
	SnapshotRepo  ports.SnapshotRepository

	// Control plane
	ControlPlane *app.ControlPlane
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{
		Config: cfg,
		Logger: internal.NewDefaultLogger(),
	}, nil
}

// InitWithDatabase wires the postgres-backed repositories.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	c.DB = db
	c.CandidateRepo = postgres.NewCandidateRepository(db)
	c.ReportRepo = postgres.NewReportRepository(db)
	c.Ledger = postgres.NewLedgerRepository(db)
	c.Lineage = postgres.NewLineageRepository(db)
	c.SnapshotRepo = postgres.NewSnapshotRepository(db)
	c.initControlPlane()
	return nil
}

// InitInMemory wires the guarded in-memory store, for local-first runs
// and tests.
func (c *Container) InitInMemory() {
	store := memory.NewStore()
	c.CandidateRepo = store
	c.ReportRepo = store
	c.Ledger = store
	c.Lineage = store
	c.SnapshotRepo = store
	c.initControlPlane()
}

func (c *Container) initControlPlane() {
	evaluator := eligibility.NewEvaluator(eligibility.Config{
		MinNullFraction: c.Config.Evaluator.MinNullFraction,
	})
	c.ControlPlane = app.NewControlPlane(
		c.CandidateRepo, c.ReportRepo, c.Ledger, c.Lineage, c.SnapshotRepo,
		evaluator, c.Config.Actor, c.Logger,
	)
}
