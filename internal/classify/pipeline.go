package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"vodsieve/internal/batching"
	"vodsieve/internal/config"
	"vodsieve/internal/logging"
	"vodsieve/internal/lookup"
	"vodsieve/internal/lookupcache"
	"vodsieve/internal/media"
	"vodsieve/internal/services"
	"vodsieve/internal/textutil"
)

// Options configures a Pipeline.
type Options struct {
	Store     lookupcache.Store
	Client    *lookup.Client
	Batcher   *batching.Batcher
	Policy    Policy
	PreFilter *PreFilter
	Ignore    IgnoreList
	Workers   int
	// OnFailure is the decision applied when a lookup fails.
	OnFailure     Decision
	CacheTTL      time.Duration
	SweepOnStart  bool
	SweepInterval time.Duration
	Logger        *slog.Logger
}

// Pipeline classifies entries. A Pipeline may run several times; each Run
// shares its cache and lookup client.
type Pipeline struct {
	cache         *lookupcache.Resilient
	client        *lookup.Client
	batcher       *batching.Batcher
	policy        Policy
	prefilter     *PreFilter
	ignore        IgnoreList
	workers       int
	onFailure     Decision
	ttl           time.Duration
	sweepOnStart  bool
	sweepInterval time.Duration
	logger        *slog.Logger
}

// New validates opts and builds a pipeline. A nil Store disables caching and
// a nil Batcher groups exact title matches only.
func New(opts Options) (*Pipeline, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("%w: lookup client required", services.ErrConfiguration)
	}
	if opts.Workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", services.ErrConfiguration, opts.Workers)
	}
	switch opts.OnFailure {
	case DecisionAllowed, DecisionExcluded:
	default:
		return nil, fmt.Errorf("%w: default policy must be allowed or excluded, got %q", services.ErrConfiguration, opts.OnFailure)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "classify")

	cache, ok := opts.Store.(*lookupcache.Resilient)
	if !ok {
		cache = lookupcache.NewResilient(opts.Store, logger)
	}
	batcher := opts.Batcher
	if batcher == nil {
		batcher = batching.New(nil)
	}
	return &Pipeline{
		cache:         cache,
		client:        opts.Client,
		batcher:       batcher,
		policy:        opts.Policy,
		prefilter:     opts.PreFilter,
		ignore:        opts.Ignore,
		workers:       opts.Workers,
		onFailure:     opts.OnFailure,
		ttl:           opts.CacheTTL,
		sweepOnStart:  opts.SweepOnStart,
		sweepInterval: opts.SweepInterval,
		logger:        logger,
	}, nil
}

// NewFromConfig wires a pipeline from configuration around an opened store
// and lookup service.
func NewFromConfig(cfg *config.Config, store lookupcache.Store, svc lookup.Service, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config required", services.ErrConfiguration)
	}
	cmp, err := batching.NewComparator(cfg.Batching.Algorithm, cfg.Batching.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	clientOpts := lookup.OptionsFromConfig(cfg.Lookup)
	clientOpts.Logger = logging.NewComponentLogger(logger, "lookup")

	onFailure := DecisionExcluded
	if cfg.Classify.DefaultAllow() {
		onFailure = DecisionAllowed
	}
	var prefilter *PreFilter
	if cfg.PreFilter.Enabled {
		prefilter = NewPreFilter(cfg.PreFilter.MinConfidence, nil)
	}
	return New(Options{
		Store:         store,
		Client:        lookup.NewClient(svc, clientOpts),
		Batcher:       batching.New(cmp),
		Policy:        PolicyFromConfig(cfg.Classify),
		PreFilter:     prefilter,
		Ignore:        IgnoreListFromConfig(cfg.Ignore),
		Workers:       cfg.Classify.Workers,
		OnFailure:     onFailure,
		CacheTTL:      cfg.Cache.TTL(),
		SweepOnStart:  cfg.Cache.SweepOnStart,
		SweepInterval: cfg.Cache.SweepInterval(),
		Logger:        logger,
	})
}

// Cache returns the pipeline's cache wrapper.
func (p *Pipeline) Cache() *lookupcache.Resilient { return p.cache }

// groupState is the shared resolution of one group. once guarantees the
// representative is resolved at most once per run.
type groupState struct {
	group     batching.Group
	once      sync.Once
	out       outcome
	fetched   bool
	err       error
	cancelled bool
}

type run struct {
	p            *Pipeline
	logger       *slog.Logger
	stats        *statsCollector
	reqs         []lookup.Request
	detailFlight singleflight.Group
}

// Run classifies entries and returns one Result per entry in input order.
// When ctx is cancelled the report is still complete, with unreached entries
// marked unresolved, and ctx.Err() is returned alongside it.
func (p *Pipeline) Run(ctx context.Context, entries []media.Entry) (*Report, error) {
	start := time.Now()
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	r := &run{
		p:      p,
		logger: logging.WithContext(ctx, p.logger),
		stats:  &statsCollector{},
	}
	r.stats.s.Received = len(entries)
	unavailableBefore := p.cache.Unavailable()
	clientBefore := p.client.Stats()

	if p.sweepOnStart {
		r.sweep(ctx, "start")
	}
	stopSweeper := r.startSweeper(ctx)
	defer stopSweeper()

	results := make([]Result, len(entries))
	candidates := r.screen(entries, results)

	r.reqs = make([]lookup.Request, len(candidates))
	for ci, idx := range candidates {
		r.reqs[ci] = lookup.RequestFor(entries[idx])
	}
	groups := p.batcher.GroupRequests(r.reqs)
	states := make([]*groupState, len(candidates))
	for _, g := range groups {
		state := &groupState{group: g}
		for _, m := range g.Members {
			states[m] = state
		}
	}
	r.stats.update(func(s *RunStats) { s.Groups = len(groups) })
	r.logger.Info("classification started",
		logging.Int("entries", len(entries)),
		logging.Int("candidates", len(candidates)),
		logging.Int("groups", len(groups)),
		logging.Int("workers", p.workers),
	)

	progress := logging.NewProgressSampler(10)
	var done atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(p.workers)
	for ci, idx := range candidates {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			res := r.classifyEntry(ctx, entries[idx], r.reqs[ci], states[ci])
			results[idx] = res
			r.stats.record(res)
			if n := int(done.Add(1)); progress.ShouldLog(n, len(candidates)) {
				r.logger.Info("classification progress",
					logging.Int("done", n),
					logging.Int("total", len(candidates)),
				)
			}
			return nil
		})
	}
	_ = eg.Wait()

	for ci, idx := range candidates {
		if results[idx].Decision == "" {
			res := unresolvedResult(entries[idx], states[ci].group.ID)
			results[idx] = res
			r.stats.record(res)
		}
	}

	clientAfter := p.client.Stats()
	r.stats.update(func(s *RunStats) {
		s.APIRequests = clientAfter.Requests - clientBefore.Requests
		s.Retries = clientAfter.Retries - clientBefore.Retries
		s.CacheUnavailable = p.cache.Unavailable() - unavailableBefore
	})
	report := &Report{
		RunID:    runID,
		Results:  results,
		Stats:    r.stats.snapshot(),
		Duration: time.Since(start),
	}
	r.logSummary(report)
	return report, ctx.Err()
}

// screen fills results for malformed, ignored and pre-filtered entries and
// returns the indexes left for resolution.
func (r *run) screen(entries []media.Entry, results []Result) []int {
	candidates := make([]int, 0, len(entries))
	for i, entry := range entries {
		skip := func(reason string, count func(*RunStats)) {
			res := Result{Entry: entry, Decision: DecisionExcluded, Reason: reason, Source: SourceSkipped}
			results[i] = res
			r.stats.update(count)
			r.stats.record(res)
			r.logger.Debug("entry screened",
				logging.Args(append(logging.DecisionAttrs("screen", string(res.Decision), reason),
					logging.String("title", entry.Title),
					logging.String(logging.FieldMediaKind, string(entry.Kind)),
				)...)...,
			)
		}
		if entry.Problem != "" {
			skip("malformed entry: "+entry.Problem, func(s *RunStats) { s.Malformed++ })
			continue
		}
		if !entry.Kind.Valid() || textutil.NormalizeTitle(entry.Title) == "" {
			skip(ReasonMalformed, func(s *RunStats) { s.Malformed++ })
			continue
		}
		if kw, ok := r.p.ignore.Match(entry.Kind, entry.Title); ok {
			skip("ignored keyword: "+kw, func(s *RunStats) { s.Ignored++ })
			continue
		}
		if det, ok := r.p.prefilter.Check(entry.Title); ok {
			skip(det.Reason, func(s *RunStats) {
				s.PreFiltered++
				if s.PreFilterByDetector == nil {
					s.PreFilterByDetector = make(map[string]int)
				}
				s.PreFilterByDetector[det.Detector]++
			})
			continue
		}
		candidates = append(candidates, i)
	}
	return candidates
}

func (r *run) classifyEntry(ctx context.Context, entry media.Entry, req lookup.Request, state *groupState) Result {
	base := Result{Entry: entry, GroupID: state.group.ID}
	if ctx.Err() != nil {
		return unresolvedResult(entry, state.group.ID)
	}
	if out, ok := r.cachedOutcome(ctx, req); ok {
		return r.decided(base, out, SourceCacheHit)
	}
	r.stats.update(func(s *RunStats) { s.CacheMisses++ })

	resolver := false
	state.once.Do(func() {
		resolver = true
		r.resolveGroup(ctx, state)
	})

	if state.cancelled {
		return unresolvedResult(entry, state.group.ID)
	}
	source := SourceBatchMember
	if resolver {
		source = SourceCacheHit
		if state.fetched {
			source = SourceAPICall
		}
	}
	if state.err != nil {
		res := r.decided(base, outcome{decision: r.p.onFailure, reason: ReasonDefaultPolicy}, source)
		res.ByDefaultPolicy = true
		return res
	}
	return r.decided(base, state.out, source)
}

func (r *run) decided(base Result, out outcome, source Source) Result {
	base.Decision = out.decision
	base.Reason = out.reason
	base.TMDBID = out.tmdbID
	base.Source = source
	r.logger.Debug("entry classified",
		logging.Args(append(logging.DecisionAttrs("origin_country", string(out.decision), out.reason),
			logging.String("title", base.Entry.Title),
			logging.String(logging.FieldMediaKind, string(base.Entry.Kind)),
			logging.Int(logging.FieldGroupID, base.GroupID),
			logging.String("source", string(source)),
		)...)...,
	)
	return base
}

func unresolvedResult(entry media.Entry, groupID int) Result {
	return Result{
		Entry:    entry,
		Decision: DecisionUnresolved,
		Reason:   ReasonCancelled,
		Source:   SourceSkipped,
		GroupID:  groupID,
	}
}

func (r *run) logSummary(report *Report) {
	s := report.Stats
	r.logger.Info("classification summary",
		logging.String(logging.FieldEventType, "classification_summary"),
		logging.Int("received", s.Received),
		logging.Int("total_entries", s.TotalEntries),
		logging.Int("allowed", s.Allowed),
		logging.Int("excluded", s.Excluded),
		logging.Int("unresolved", s.Unresolved),
		logging.Int("groups", s.Groups),
		logging.Int("cache_hits", s.CacheHits),
		logging.Int("calls_issued", s.CallsIssued),
		logging.Int("batch_reuses", s.BatchReuses),
		logging.Int("calls_saved", s.CallsSaved),
		logging.Int64("api_requests", s.APIRequests),
		logging.Int64("retries", s.Retries),
		logging.Int("default_policy", s.DefaultPolicy),
		logging.Duration("duration", report.Duration),
	)
	if err := s.Check(); err != nil {
		logging.ErrorWithContext(r.logger, "classification statistics do not reconcile", "stats_mismatch",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "report this run's log; counts are inconsistent"),
		)
	}
}

func (r *run) sweep(ctx context.Context, trigger string) {
	removed, _ := r.p.cache.Sweep(ctx)
	r.logger.Info("lookup cache swept",
		logging.String("trigger", trigger),
		logging.Int64("removed", removed),
	)
}

func (r *run) startSweeper(ctx context.Context) func() {
	interval := r.p.sweepInterval
	if interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx, "interval")
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func isFailureCancellation(ctx context.Context, err error) bool {
	return err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled))
}
