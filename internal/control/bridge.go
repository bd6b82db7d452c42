// Package control wires configuration, transport, connection manager,
// recovery engine, pipeline and persistence into one runnable bridge.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/markerbridge/internal/core/config"
	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/health"
	"github.com/vietddude/markerbridge/internal/host"
	"github.com/vietddude/markerbridge/internal/hostrpc"
	redisclient "github.com/vietddude/markerbridge/internal/infra/redis"
	"github.com/vietddude/markerbridge/internal/infra/storage"
	"github.com/vietddude/markerbridge/internal/infra/storage/memory"
	"github.com/vietddude/markerbridge/internal/infra/storage/postgres"
	"github.com/vietddude/markerbridge/internal/markers"
	"github.com/vietddude/markerbridge/internal/recovery"
)

// Prompts carries the optional interactive sinks. Nil fields degrade to
// the non-interactive behavior of each component.
type Prompts struct {
	Error    recovery.PromptSink
	Conflict markers.ConflictPrompt
	Progress markers.ProgressFunc
}

// Bridge is the main application struct that manages the connection and
// import lifecycle.
type Bridge struct {
	cfg          *config.AppConfig
	conn         *host.Manager
	engine       *recovery.Engine
	pipeline     *markers.Pipeline
	journal      storage.JournalRepository
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewBridge creates a bridge with all dependencies initialized.
func NewBridge(cfg *config.AppConfig, prompts Prompts) (*Bridge, error) {
	log := slog.Default()

	// 1. Storage: postgres journal when configured, memory otherwise.
	var journal storage.JournalRepository
	var db *postgres.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		journal = postgres.NewJournalRepo(db)
		log.Info("Using PostgreSQL journal")
	} else {
		journal = memory.NewJournalRepo()
		log.Info("Using memory journal")
	}

	// 2. Dedupe store, only when Redis is configured.
	var dedupe markers.DedupeStore
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		dedupe = redisclient.NewDedupeStore(redisClient)
		log.Info("Using Redis dedupe store")
	}

	// 3. Connection manager over the configured transport.
	conn := host.NewManager(hostConfig(cfg.Host), dialFunc(cfg.Host), func(change host.StateChange) {
		log.Info("Connection state changed",
			"from", change.Old.String(),
			"to", change.New.String(),
			"reason", change.Reason)
	})

	// 4. Recovery engine and pipeline.
	engine := recovery.NewEngine(recovery.DefaultConfig(), prompts.Error)
	pipeline := markers.NewPipeline(conn, engine, dedupe, prompts.Conflict, prompts.Progress)

	b := &Bridge{
		cfg:         cfg,
		conn:        conn,
		engine:      engine,
		pipeline:    pipeline,
		journal:     journal,
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
	b.healthServer = health.NewServer(conn, journal, cfg.Server.Port)
	return b, nil
}

func hostConfig(cfg config.HostConfig) host.Config {
	hc := host.DefaultConfig(cfg.Endpoint)
	hc.CompanyName = cfg.CompanyName
	hc.ApplicationName = cfg.ApplicationName
	hc.RequestTimeout = cfg.RequestTimeout
	hc.HeartbeatInterval = cfg.Heartbeat.Interval
	hc.HeartbeatMaxMisses = cfg.Heartbeat.MaxMisses
	hc.Reconnect.Base = cfg.Reconnect.Base
	hc.Reconnect.Cap = cfg.Reconnect.Cap
	hc.Reconnect.MaxAttempts = cfg.Reconnect.MaxAttempts
	return hc
}

func dialFunc(cfg config.HostConfig) host.DialFunc {
	if cfg.Transport == "http" {
		return func() (hostrpc.Transport, error) {
			return hostrpc.NewHTTPTransport(cfg.Endpoint, cfg.RequestTimeout), nil
		}
	}
	return func() (hostrpc.Transport, error) {
		return hostrpc.NewGRPCTransport(cfg.Endpoint)
	}
}

// Start connects to the host and starts the health server.
func (b *Bridge) Start(ctx context.Context) error {
	go func() {
		b.log.Info("Health server listening", "port", b.cfg.Server.Port)
		if err := b.healthServer.Start(); err != nil && err != http.ErrServerClosed {
			b.log.Error("Health server failed", "error", err)
		}
	}()

	if err := b.conn.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to host: %w", err)
	}
	return nil
}

// Stop shuts everything down gracefully.
func (b *Bridge) Stop(ctx context.Context) {
	if err := b.healthServer.Stop(ctx); err != nil {
		b.log.Warn("Health server shutdown failed", "error", err)
	}
	b.conn.Close()
	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			b.log.Warn("Redis close failed", "error", err)
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.log.Warn("Database close failed", "error", err)
		}
	}
}

// Connection exposes the underlying manager for status queries.
func (b *Bridge) Connection() *host.Manager {
	return b.conn
}

// Journal exposes the import journal.
func (b *Bridge) Journal() storage.JournalRepository {
	return b.journal
}

// RunImport runs one marker import over the configured options and
// journals the outcome.
func (b *Bridge) RunImport(ctx context.Context, comments []domain.Comment) (*markers.Result, error) {
	started := time.Now().UTC()

	result, err := b.pipeline.CreateMarkers(ctx, comments, markers.Options{
		ExpectedFrameRate: b.cfg.Import.ExpectedFrameRate,
		StartOffset:       b.cfg.Import.StartOffset,
		Strategy:          markers.ConflictStrategy(b.cfg.Import.ConflictStrategy),
		BatchSize:         b.cfg.Import.BatchSize,
		BatchDelay:        b.cfg.Import.BatchDelay,
		CreateRetries:     b.cfg.Import.CreateRetries,
	})
	if err != nil {
		return nil, err
	}

	b.journalRun(ctx, started, comments, result)
	return result, nil
}

// journalRun persists the run summary and its failed markers. Journal
// errors are logged, never surfaced to the import caller.
func (b *Bridge) journalRun(ctx context.Context, started time.Time, comments []domain.Comment, result *markers.Result) {
	run := &domain.ImportRun{
		ID:          uuid.NewString(),
		SessionName: result.SessionName,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		Created:     result.Created,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
	}
	if err := b.journal.SaveRun(ctx, run); err != nil {
		b.log.Warn("Failed to journal import run", "error", err)
		return
	}

	var failed []*domain.FailedMarker
	for _, item := range result.Results {
		if item.Status != markers.StatusFailed {
			continue
		}
		fm := &domain.FailedMarker{
			RunID:    run.ID,
			Name:     item.Name,
			Timecode: item.Timecode,
			Reason:   item.Reason,
		}
		if item.Index < len(comments) {
			fm.CommentID = comments[item.Index].ID
		}
		failed = append(failed, fm)
	}
	if err := b.journal.SaveFailedMarkers(ctx, failed); err != nil {
		b.log.Warn("Failed to journal failed markers", "error", err)
	}
}
