// Package pipeline runs one publish of a release: classify the declarations,
// extract event records, resolve their first release, stage them and
// promote the staging set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forgeevents/eventcatalog/internal/ast"
	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/lineage"
	"github.com/forgeevents/eventcatalog/internal/lock"
	"github.com/forgeevents/eventcatalog/internal/metadata"
	"github.com/forgeevents/eventcatalog/internal/release"
)

// ErrNoRecordsStaged is returned when every event record of a run failed
// to persist.
var ErrNoRecordsStaged = errors.New("no event records were staged")

// Store is the part of the catalog a run needs.
type Store interface {
	RegisterRelease(ctx context.Context, info catalog.ReleaseInfo) error
	KnownReleases(ctx context.Context) ([]string, error)
	BeginRelease(ctx context.Context, rel string) error
	Put(ctx context.Context, rel string, rec catalog.EventRecord) error
	LookupByName(ctx context.Context, rel, name string) (*catalog.EventRecord, error)
	Promote(ctx context.Context, rel string, force bool) (bool, error)
}

// Release describes the release being published.
type Release struct {
	ID           string
	ForgeVersion string
	Routing      metadata.BusRouting
	// RawEventBus is the routing list as given, stored in the versions table.
	RawEventBus string
}

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	Markers     []string
	Annotations metadata.Annotations
	Locker      lock.Locker
	Metrics     *Metrics
	Logger      *zap.Logger
}

// Pipeline publishes releases into a store.
type Pipeline struct {
	store       Store
	markers     []string
	annotations metadata.Annotations
	locker      lock.Locker
	metrics     *Metrics
	logger      *zap.Logger
}

// New creates a pipeline writing to store.
func New(store Store, opts Options) *Pipeline {
	p := &Pipeline{
		store:       store,
		markers:     opts.Markers,
		annotations: opts.Annotations,
		locker:      opts.Locker,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if p.locker == nil {
		p.locker = lock.NopLocker{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Release  string
	Previous string

	Inspected int // declarations looked at
	Events    int // declarations classified as events
	Staged    int
	Skipped   int // extraction warnings
	Failed    int // records that could not be resolved or persisted

	Promoted bool
	// PromotionErr is set when promotion failed. The staging set is kept
	// and the previous production view is untouched.
	PromotionErr error
	Duration     time.Duration
}

// Run publishes prog as release rel. Per-declaration problems are logged
// and skipped; connection failures abort the run. A cancelled context
// stops the run before promotion.
func (p *Pipeline) Run(ctx context.Context, prog *ast.Program, rel Release, force bool) (report *Report, err error) {
	start := time.Now()
	report = &Report{RunID: uuid.NewString(), Release: rel.ID}
	logger := p.logger.With(zap.String("run_id", report.RunID), zap.String("release", rel.ID))

	defer func() {
		report.Duration = time.Since(start)
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		p.metrics.finishedRun(outcome, report.Duration.Seconds())
	}()

	if err := release.Validate(rel.ID); err != nil {
		return report, err
	}
	if prog == nil {
		prog = &ast.Program{}
	}

	unlock, err := p.locker.Acquire(ctx, release.Escape(rel.ID))
	if err != nil {
		return report, fmt.Errorf("failed to lock release %s: %w", rel.ID, err)
	}
	defer func() {
		// The run context may be cancelled by now
		if err := unlock(context.Background()); err != nil {
			logger.Warn("failed to release run lock", zap.Error(err))
		}
	}()

	if err := p.store.RegisterRelease(ctx, catalog.ReleaseInfo{
		Release:      rel.ID,
		ForgeVersion: rel.ForgeVersion,
		EventBusList: rel.RawEventBus,
	}); err != nil {
		return report, err
	}

	known, err := p.store.KnownReleases(ctx)
	if err != nil {
		return report, err
	}
	previous, _, err := release.PredecessorOf(rel.ID, known)
	if err != nil {
		return report, err
	}
	report.Previous = previous
	logger.Info("publishing release", zap.String("previous", previous), zap.Int("declarations", len(prog.Classes)))

	if err := p.store.BeginRelease(ctx, rel.ID); err != nil {
		return report, err
	}

	if err := p.stage(ctx, logger, prog, rel, report); err != nil {
		return report, err
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run cancelled before promotion: %w", err)
	}

	promoted, err := p.store.Promote(ctx, rel.ID, force)
	switch {
	case err != nil && catalog.IsConnectionError(err):
		p.metrics.promotion("failed")
		return report, err
	case err != nil:
		p.metrics.promotion("failed")
		report.PromotionErr = err
		logger.Error("promotion failed, previous production view kept", zap.Error(err))
	case promoted:
		p.metrics.promotion("promoted")
		report.Promoted = true
		logger.Info("promoted staging to production", zap.Bool("forced", force))
	default:
		p.metrics.promotion("skipped")
		logger.Info("production view already exists, not promoted")
	}

	logger.Info("publish finished",
		zap.Int("events", report.Events),
		zap.Int("staged", report.Staged),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// stage writes every event declaration of prog into the staging set.
func (p *Pipeline) stage(ctx context.Context, logger *zap.Logger, prog *ast.Program, rel Release, report *Report) error {
	classifier := metadata.NewClassifier(ast.NewIndex(prog), p.markers...)
	extractor := metadata.NewExtractor(rel.Routing, p.annotations)
	resolver := lineage.NewResolver(p.store)

	for _, decl := range prog.Classes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}
		if decl == nil {
			continue
		}

		report.Inspected++
		p.metrics.inspectedDeclaration()
		logger.Debug("inspecting class", zap.String("class", decl.QualifiedName))

		if !classifier.IsEvent(decl) {
			continue
		}
		report.Events++

		rec, err := extractor.Extract(decl)
		if err != nil {
			report.Skipped++
			p.metrics.skippedEvent("extraction")
			logger.Warn("skipping declaration", zap.String("class", decl.QualifiedName), zap.Error(err))
			continue
		}

		rec.Since, err = resolver.ResolveSince(ctx, rec, rel.ID, report.Previous)
		if err == nil {
			err = p.store.Put(ctx, rel.ID, rec)
		}
		if err != nil {
			if catalog.IsConnectionError(err) {
				return err
			}
			report.Failed++
			p.metrics.skippedEvent("persist")
			logger.Error("failed to stage event", zap.String("event", rec.Name), zap.Error(err))
			continue
		}

		report.Staged++
		p.metrics.stagedEvent()
		logger.Info("staged event",
			zap.String("event", rec.Name),
			zap.String("since", rec.Since),
			zap.String("bus", rec.EventBus),
		)
	}

	if report.Failed > 0 && report.Staged == 0 {
		return fmt.Errorf("%w: all %d attempted records failed", ErrNoRecordsStaged, report.Failed)
	}
	return nil
}
