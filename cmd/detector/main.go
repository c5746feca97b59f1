package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vesselwatch/transit-engine/internal/config"
	"github.com/vesselwatch/transit-engine/internal/db"
	"github.com/vesselwatch/transit-engine/internal/export"
	"github.com/vesselwatch/transit-engine/internal/geometry"
	"github.com/vesselwatch/transit-engine/internal/ingest"
	"github.com/vesselwatch/transit-engine/internal/redis"
	"github.com/vesselwatch/transit-engine/internal/stats"
	"github.com/vesselwatch/transit-engine/internal/transit"
	"github.com/vesselwatch/transit-engine/internal/types"
)

// DBClient interface for testability
type DBClient interface {
	StorePositions(positions []types.Position) error
	CreateDetectionRun(run *types.DetectionRun) error
	StoreVoyages(runID string, voyages []types.Voyage) error
	Close() error
}

// RedisClient interface for testability
type RedisClient interface {
	StoreRegion(ctx context.Context, region *geometry.Region) error
	StoreRunSummary(ctx context.Context, run *types.DetectionRun) error
	Close() error
}

// Exporter interface for testability
type Exporter interface {
	WriteVoyages(voyages []types.Voyage) (string, error)
	ArchiveOld() error
}

// Detector wires the engine to its persistence and export collaborators.
type Detector struct {
	engine   *transit.Engine
	db       DBClient
	redis    RedisClient
	exporter Exporter
	stats    *stats.Stats
}

// NewDetector creates a detector around the given collaborators.
func NewDetector(workers int, dbClient DBClient, redisClient RedisClient, exporter Exporter) *Detector {
	return &Detector{
		engine:   transit.NewEngine(workers),
		db:       dbClient,
		redis:    redisClient,
		exporter: exporter,
		stats:    stats.New(),
	}
}

// Run executes one detection batch end to end: detect, persist, cache,
// export. Persistence failures after a successful detection are surfaced
// but do not invalidate the computed run.
func (d *Detector) Run(ctx context.Context, positions []types.Position, coverage, target *geometry.Region) (*types.DetectionRun, error) {
	start := time.Now()
	d.stats.IncrementBatches()
	d.stats.UpdateLastBatchTime()
	d.stats.AddPositionsRead(uint64(len(positions)))

	result, err := d.engine.Detect(ctx, positions, coverage, target)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	d.stats.AddVoyagesDetected(uint64(result.Summary.TotalVoyages))
	d.stats.AddAnomaliesDetected(uint64(result.Summary.NegativeDurationDrops + result.Summary.AlternationWarnings))
	d.stats.SetVesselsWithVoyages(uint64(result.Summary.VesselsWithVoyages))

	run := &types.DetectionRun{
		RunID:        uuid.New().String(),
		CoverageName: coverage.Name(),
		TargetName:   target.Name(),
		StartedAt:    start.UTC(),
		FinishedAt:   time.Now().UTC(),
		Summary:      result.Summary,
	}

	if err := d.db.StorePositions(positions); err != nil {
		log.Printf("Warning: Failed to archive positions: %v", err)
	}
	if err := d.db.CreateDetectionRun(run); err != nil {
		return nil, fmt.Errorf("failed to store detection run: %w", err)
	}
	if err := d.db.StoreVoyages(run.RunID, result.Voyages); err != nil {
		return nil, fmt.Errorf("failed to store voyages: %w", err)
	}

	if err := d.redis.StoreRegion(ctx, coverage); err != nil {
		log.Printf("Warning: Failed to cache coverage region: %v", err)
	}
	if err := d.redis.StoreRegion(ctx, target); err != nil {
		log.Printf("Warning: Failed to cache target region: %v", err)
	}
	if err := d.redis.StoreRunSummary(ctx, run); err != nil {
		log.Printf("Warning: Failed to cache run summary: %v", err)
	}

	path, err := d.exporter.WriteVoyages(result.Voyages)
	if err != nil {
		return nil, fmt.Errorf("failed to export voyages: %w", err)
	}
	if err := d.exporter.ArchiveOld(); err != nil {
		log.Printf("Warning: Failed to archive old exports: %v", err)
	}

	d.stats.AddProcessingTime(time.Since(start))
	log.Printf("Run %s: %d voyages across %d vessels (%d positions in coverage), exported to %s",
		run.RunID, run.Summary.TotalVoyages, run.Summary.VesselsWithVoyages, run.Summary.FilteredPositions, path)
	return run, nil
}

// buildRegions parses the configured coverage and target rings.
func buildRegions(cfg *config.Config) (*geometry.Region, *geometry.Region, error) {
	coverageRing, err := geometry.ParseRing(cfg.CoverageRing)
	if err != nil {
		return nil, nil, fmt.Errorf("coverage ring: %w", err)
	}
	coverage, err := geometry.NewRegion(cfg.CoverageName, coverageRing)
	if err != nil {
		return nil, nil, err
	}

	targetRing, err := geometry.ParseRing(cfg.TargetRing)
	if err != nil {
		return nil, nil, fmt.Errorf("target ring: %w", err)
	}
	target, err := geometry.NewRegion(cfg.TargetName, targetRing)
	if err != nil {
		return nil, nil, err
	}
	return coverage, target, nil
}

// createClients creates the persistence clients for the detector
func createClients(dbConnStr, redisAddr string) (*db.Client, *redis.Client, error) {
	dbClient, err := db.New(dbConnStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}

	redisClient, err := redis.New(redisAddr)
	if err != nil {
		if closeErr := dbClient.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", closeErr)
		}
		return nil, nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return dbClient, redisClient, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	coverage, target, err := buildRegions(cfg)
	if err != nil {
		return err
	}

	positions, rowErrs, err := ingest.ReadDir(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}
	for _, rowErr := range rowErrs {
		log.Printf("Warning: Skipped row %v", rowErr)
	}

	dbClient, redisClient, err := createClients(cfg.DBConnStr, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
		}
		if err := redisClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing redisClient: %v\n", err)
		}
	}()

	detector := NewDetector(cfg.Workers, dbClient, redisClient, export.New(cfg.OutputDir))
	detector.stats.AddRowsRejected(uint64(len(rowErrs)))
	detector.stats.SetDB(dbClient)

	detRun, err := detector.Run(context.Background(), positions, coverage, target)
	if err != nil {
		return err
	}
	if err := detector.stats.Persist(); err != nil {
		log.Printf("Warning: Failed to persist statistics: %v", err)
	}

	if detRun.Summary.FilteredPositions == 0 {
		log.Printf("Warning: no positions inside coverage region %q", coverage.Name())
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Printf("Detector failed: %v", err)
		os.Exit(1)
	}
}
