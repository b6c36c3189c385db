package internal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/exposure/internal/domain"
	"github.com/vadiminshakov/exposure/internal/events"
	"github.com/vadiminshakov/exposure/internal/services/snapshot"
	"github.com/vadiminshakov/exposure/internal/services/valuation"
)

type exchangeReader interface {
	GetPositions(ctx context.Context) (*domain.ExchangePositionSet, error)
}

type protocolReader interface {
	GetPositions(ctx context.Context) (*domain.ProtocolPositionSet, error)
}

type walletReader interface {
	GetPositions(ctx context.Context) (*domain.VenuePositionSet, error)
}

type priceAdapter interface {
	GetPrices(ctx context.Context, universe []domain.Asset) (domain.PriceBook, []domain.SourceFailure)
}

type cyclePublisher interface {
	Publish(e events.CycleEvent)
}

// Sink persists the records of one table.
type Sink interface {
	Name() string
	Write(ctx context.Context, table string, columns []string, rows [][]any) error
}

// snapshotWriter is a Sink that stores every batch of a snapshot or none of them.
type snapshotWriter interface {
	WriteAll(ctx context.Context, batches []snapshot.Batch) error
}

// Settings scheduling and persistence behaviour of a Portfolio.
type Settings struct {
	Interval       time.Duration
	FetchTimeout   time.Duration
	PersistPartial bool
}

// Deps collaborators of a Portfolio.
type Deps struct {
	Exchange   exchangeReader
	Protocol   protocolReader
	Wallet     walletReader
	Prices     priceAdapter
	Aggregator *valuation.Aggregator
	Universe   []domain.Asset
	Sinks      []Sink
	Events     cyclePublisher
}

// Portfolio takes valuation snapshots of every venue on a fixed interval.
type Portfolio struct {
	deps     Deps
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	running atomic.Bool
	wg      sync.WaitGroup

	mu     sync.RWMutex
	latest *domain.SnapshotSummary
}

// NewPortfolio creates a snapshot runner.
func NewPortfolio(settings Settings, deps Deps, logger *zap.Logger) (*Portfolio, error) {
	switch {
	case deps.Exchange == nil, deps.Protocol == nil, deps.Wallet == nil:
		return nil, errors.New("all venue readers are required")
	case deps.Prices == nil:
		return nil, errors.New("price adapter is required")
	case deps.Aggregator == nil:
		return nil, errors.New("aggregator is required")
	case settings.Interval <= 0 || settings.FetchTimeout <= 0:
		return nil, errors.New("interval and fetch timeout must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Portfolio{
		deps:     deps,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Latest returns the last summary that valued at least one venue.
func (p *Portfolio) Latest() (*domain.SnapshotSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.latest != nil
}

// RunCycle fetches, values and persists one snapshot.
func (p *Portfolio) RunCycle(ctx context.Context) domain.CycleResult {
	createdAt := p.now().UTC()
	in, readerErrs, sourceErrs := p.fetch(ctx)

	summary, valuationErrs := p.deps.Aggregator.Aggregate(in, p.newID(), createdAt)

	venueErrs := make(map[domain.Venue]error, len(readerErrs)+len(valuationErrs))
	for venue, err := range valuationErrs {
		venueErrs[venue] = err
	}
	for venue, err := range readerErrs {
		venueErrs[venue] = err
	}

	result := domain.CycleResult{
		Status:       domain.CycleSuccess,
		Summary:      summary,
		VenueErrors:  venueErrs,
		SourceErrors: sourceErrs,
	}

	switch {
	case len(summary.Venues()) == 0:
		result.Status = domain.CycleFailure
		result.Err = domain.ErrNoVenueValued
	case len(venueErrs) > 0 || len(sourceErrs) > 0:
		result.Status = domain.CyclePartialFailure
	}

	if result.Status == domain.CycleSuccess || (result.Status == domain.CyclePartialFailure && p.settings.PersistPartial) {
		written, err := p.persist(ctx, summary)
		result.Persisted = written > 0
		result.Err = err
		if len(p.deps.Sinks) > 0 && written == 0 {
			result.Status = domain.CycleFailure
		}
	}

	if len(summary.Venues()) > 0 {
		p.mu.Lock()
		p.latest = summary
		p.mu.Unlock()
	}

	if p.deps.Events != nil {
		p.deps.Events.Publish(events.NewCycleEvent(result, createdAt))
	}

	p.logResult(result)
	return result
}

func (p *Portfolio) fetch(ctx context.Context) (valuation.Inputs, map[domain.Venue]error, []domain.SourceFailure) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.settings.FetchTimeout)
	defer cancel()

	var (
		in                       valuation.Inputs
		sourceErrs               []domain.SourceFailure
		exchErr, protErr, walErr error
	)

	var g errgroup.Group
	g.SetLimit(4)
	g.Go(func() error {
		in.Exchange, exchErr = p.deps.Exchange.GetPositions(fetchCtx)
		return nil
	})
	g.Go(func() error {
		in.Protocol, protErr = p.deps.Protocol.GetPositions(fetchCtx)
		return nil
	})
	g.Go(func() error {
		in.Wallet, walErr = p.deps.Wallet.GetPositions(fetchCtx)
		return nil
	})
	g.Go(func() error {
		in.Prices, sourceErrs = p.deps.Prices.GetPrices(fetchCtx, p.deps.Universe)
		return nil
	})
	_ = g.Wait()

	readerErrs := make(map[domain.Venue]error)
	if exchErr != nil {
		in.Exchange = nil
		readerErrs[domain.VenueExchange] = readerFailure(exchErr)
	}
	if protErr != nil {
		in.Protocol = nil
		readerErrs[domain.VenueProtocol] = readerFailure(protErr)
	}
	if walErr != nil {
		in.Wallet = nil
		readerErrs[domain.VenueWallet] = readerFailure(walErr)
	}
	if in.Prices == nil {
		in.Prices = domain.NewPriceBook()
	}

	return in, readerErrs, sourceErrs
}

// readerFailure keeps domain errors as they are and marks transport failures as unavailable.
func readerFailure(err error) error {
	for _, known := range []error{domain.ErrDivideByZero, domain.ErrLayoutMismatch, domain.ErrUnexpectedAssetHeld} {
		if errors.Is(err, known) {
			return err
		}
	}
	return errors.Wrapf(domain.ErrSourceUnavailable, "%v", err)
}

// persist writes every batch to every sink and returns how many sinks took the whole snapshot.
// A sink failing does not stop the others.
func (p *Portfolio) persist(ctx context.Context, summary *domain.SnapshotSummary) (int, error) {
	batches := snapshot.Assemble(summary)

	var firstErr error
	written := 0
	for _, sink := range p.deps.Sinks {
		if err := writeBatches(ctx, sink, batches); err != nil {
			p.logger.Error("Failed to persist snapshot",
				zap.String("sink", sink.Name()),
				zap.String("snapshot_id", summary.ID()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written++
	}

	return written, firstErr
}

func writeBatches(ctx context.Context, sink Sink, batches []snapshot.Batch) error {
	if w, ok := sink.(snapshotWriter); ok {
		if err := w.WriteAll(ctx, batches); err != nil {
			return errors.Wrapf(err, "%s: write snapshot", sink.Name())
		}
		return nil
	}

	for _, b := range batches {
		if err := sink.Write(ctx, b.Table, b.Columns, b.Rows); err != nil {
			return errors.Wrapf(err, "%s: write %s", sink.Name(), b.Table)
		}
	}
	return nil
}

func (p *Portfolio) logResult(result domain.CycleResult) {
	fields := []zap.Field{
		zap.String("status", result.Status.String()),
		zap.Bool("persisted", result.Persisted),
	}
	if result.Summary != nil {
		fields = append(fields,
			zap.String("snapshot_id", result.Summary.ID()),
			zap.String("total", result.Summary.PortfolioTotal().String()))
	}

	switch result.Status {
	case domain.CycleSuccess:
		p.logger.Info("Snapshot cycle completed", fields...)
	case domain.CyclePartialFailure:
		p.logger.Warn("Snapshot cycle partially failed", append(fields, zap.String("reason", result.Reason()))...)
	default:
		p.logger.Error("Snapshot cycle failed", append(fields, zap.String("reason", result.Reason()))...)
	}
}

// Run takes a snapshot immediately and then on every interval until ctx is cancelled.
// A tick that arrives while a cycle is still running is skipped.
func (p *Portfolio) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.settings.Interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	p.logger.Info("Starting snapshot loop",
		zap.Duration("interval", p.settings.Interval),
		zap.Duration("fetch_timeout", p.settings.FetchTimeout))

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Context done, stopping snapshot loop")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Portfolio) tick(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Warn("Previous snapshot cycle still running, skipping tick")
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)
		p.RunCycle(ctx)
	}()
}
