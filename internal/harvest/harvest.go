// Package harvest orchestrates the statement pipeline: listing, cache-first
// content resolution, pattern extraction, and the result sink.
package harvest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/finstat-harvester/internal/cache"
	"github.com/sells-group/finstat-harvester/internal/extract"
	"github.com/sells-group/finstat-harvester/internal/model"
	"github.com/sells-group/finstat-harvester/internal/sink"
	"github.com/sells-group/finstat-harvester/internal/store"
	"github.com/sells-group/finstat-harvester/pkg/taxisportal"
)

// Options tunes orchestrator behavior.
type Options struct {
	// Throttle is the minimum interval between remote statement fetches.
	// Cache hits never wait.
	Throttle time.Duration
	// Concurrency bounds parallel entity processing. Statements within an
	// entity always run sequentially. Defaults to 1.
	Concurrency int
	// Extractor overrides the default field specs (tests).
	Extractor *extract.Extractor
}

// Harvester drives the full harvest across the entity registry.
type Harvester struct {
	entities    []model.Entity
	portal      taxisportal.Client
	docs        *cache.Cache
	extractor   *extract.Extractor
	limiter     *rate.Limiter
	concurrency int

	mu      sync.Mutex // guards out and summary
	out     *sink.CSVSink
	summary model.HarvestSummary

	runs store.Store // optional; run recording is best-effort
}

// New creates a Harvester. The store may be nil, in which case run history
// is not recorded.
func New(entities []model.Entity, portal taxisportal.Client, docs *cache.Cache, out *sink.CSVSink, runs store.Store, opts Options) *Harvester {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.New(extract.DefaultFields())
	}

	// A single shared limiter preserves the per-fetch minimum interval even
	// when entities run in parallel.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Throttle > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Throttle), 1)
	}

	return &Harvester{
		entities:    entities,
		portal:      portal,
		docs:        docs,
		extractor:   extractor,
		limiter:     limiter,
		concurrency: opts.Concurrency,
		out:         out,
		runs:        runs,
	}
}

// Run processes every entity and returns the aggregate summary. Individual
// entity and statement failures are isolated: they are logged, counted, and
// skipped. Run returns an error only when the whole pipeline is cancelled.
func (h *Harvester) Run(ctx context.Context) (*model.HarvestSummary, error) {
	runID := h.createRun(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for _, entity := range h.entities {
		g.Go(func() error {
			h.processEntity(gctx, entity)
			return gctx.Err()
		})
	}

	err := g.Wait()

	h.mu.Lock()
	summary := h.summary
	h.mu.Unlock()

	status := model.RunStatusComplete
	if err != nil {
		status = model.RunStatusFailed
	}
	h.completeRun(ctx, runID, status, &summary)

	if err != nil {
		return &summary, err
	}
	return &summary, nil
}

// processEntity runs the per-entity sub-flow: directory, listing, then each
// statement sequentially. Any failure before the statement loop skips the
// whole entity.
func (h *Harvester) processEntity(ctx context.Context, entity model.Entity) {
	log := zap.L().With(zap.String("entity", entity.Name), zap.String("pib", entity.PIB))
	log.Info("harvest: processing entity")

	if err := h.docs.EnsureEntityDir(entity); err != nil {
		log.Error("harvest: skipping entity, cannot create cache dir", zap.Error(err))
		h.count(func(s *model.HarvestSummary) { s.EntitiesSkipped++ })
		return
	}

	refs, err := h.portal.ListStatements(ctx, entity.PIB)
	if err != nil {
		log.Error("harvest: skipping entity, listing failed", zap.Error(err))
		h.count(func(s *model.HarvestSummary) { s.EntitiesSkipped++ })
		return
	}
	log.Info("harvest: statements listed", zap.Int("count", len(refs)))

	for _, ref := range refs {
		if ctx.Err() != nil {
			return
		}
		h.processStatement(ctx, log, entity, ref)
	}

	h.count(func(s *model.HarvestSummary) { s.EntitiesProcessed++ })
}

// processStatement resolves one statement cache-first, extracts its fields,
// derives the metric, and appends the record. Failures skip this statement
// only; extraction misses only degrade the record.
func (h *Harvester) processStatement(ctx context.Context, log *zap.Logger, entity model.Entity, ref model.StatementRef) {
	log = log.With(zap.String("statement", ref.StatementID), zap.String("year", ref.Year))

	html, hit, err := h.docs.GetOrFetch(ctx, entity, ref, func(ctx context.Context) (string, error) {
		// Throttle applies to remote fetches only; the closure runs on miss.
		if err := h.limiter.Wait(ctx); err != nil {
			return "", err
		}
		return h.portal.FetchStatement(ctx, ref)
	})
	if err != nil {
		log.Error("harvest: skipping statement, fetch failed", zap.Error(err))
		h.count(func(s *model.HarvestSummary) { s.StatementsSkipped++ })
		return
	}
	if hit {
		log.Debug("harvest: statement served from cache")
	}

	values, misses := h.extractor.Extract(html)
	for _, miss := range misses {
		// A zero default is indistinguishable from a true zero in the
		// record itself; this warning is the only confidence signal.
		log.Warn("harvest: field defaulted to 0, no pattern matched",
			zap.String("field", miss.Field),
			zap.String("rule", miss.Tag),
		)
	}

	fields := extract.Fields(values)
	record := model.ResultRecord{
		Name:          entity.Name,
		Year:          ref.Year,
		TotalIncome:   fields.TotalIncome,
		Profit:        fields.Profit,
		EmployeeCount: fields.EmployeeCount,
		NetPayCosts:   fields.NetPayCosts,
		AveragePay:    extract.AveragePay(fields),
	}

	h.mu.Lock()
	appendErr := h.out.Append(record)
	h.mu.Unlock()
	if appendErr != nil {
		log.Error("harvest: skipping statement, sink append failed", zap.Error(appendErr))
		h.count(func(s *model.HarvestSummary) { s.StatementsSkipped++ })
		return
	}

	log.Info("harvest: statement complete",
		zap.Int64("total_income", fields.TotalIncome),
		zap.Int64("profit", fields.Profit),
		zap.Int64("employees", fields.EmployeeCount),
		zap.Int64("net_pay_costs", fields.NetPayCosts),
	)

	h.count(func(s *model.HarvestSummary) {
		s.StatementsOK++
		s.RowsWritten++
		s.ExtractionMisses += len(misses)
		if hit {
			s.CacheHits++
		} else {
			s.RemoteFetches++
		}
	})
}

func (h *Harvester) count(fn func(*model.HarvestSummary)) {
	h.mu.Lock()
	fn(&h.summary)
	h.mu.Unlock()
}

// createRun records the run start; failures are logged and ignored so the
// CSV stays the sole durable success artifact.
func (h *Harvester) createRun(ctx context.Context) string {
	if h.runs == nil {
		return ""
	}
	run, err := h.runs.CreateRun(ctx)
	if err != nil {
		zap.L().Warn("harvest: failed to record run start", zap.Error(err))
		return ""
	}
	return run.ID
}

func (h *Harvester) completeRun(ctx context.Context, runID string, status model.RunStatus, summary *model.HarvestSummary) {
	if h.runs == nil || runID == "" {
		return
	}
	if err := h.runs.CompleteRun(ctx, runID, status, summary); err != nil {
		zap.L().Warn("harvest: failed to record run completion", zap.Error(err))
	}
}
