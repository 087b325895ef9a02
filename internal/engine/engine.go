package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ashwinsharma89/adlens/internal/config"
	"github.com/ashwinsharma89/adlens/internal/errs"
	"github.com/ashwinsharma89/adlens/internal/history"
	"github.com/ashwinsharma89/adlens/internal/intent"
	"github.com/ashwinsharma89/adlens/internal/metrics"
	"github.com/ashwinsharma89/adlens/internal/models"
	"github.com/ashwinsharma89/adlens/internal/query"
	"github.com/ashwinsharma89/adlens/internal/stats"
	"github.com/ashwinsharma89/adlens/internal/store"
	"github.com/ashwinsharma89/adlens/internal/temporal"
	"github.com/ashwinsharma89/adlens/internal/utils"
)

// Engine is the in-process façade tying the pipeline together:
// intent resolver -> compiler -> executor -> statistics -> history.
type Engine struct {
	cfg      config.Config
	st       *store.MemoryStore
	reg      *metrics.Registry
	resolver *intent.Resolver
	compiler *query.Compiler
	executor *query.Executor
	hist     history.Store
	log      *slog.Logger
}

// New wires an engine. now is injectable for deterministic tests; nil
// means time.Now.
func New(cfg config.Config, st *store.MemoryStore, hist history.Store, log *slog.Logger, now func() time.Time) *Engine {
	reg := metrics.NewRegistry()
	return &Engine{
		cfg:      cfg,
		st:       st,
		reg:      reg,
		resolver: intent.NewResolver(reg, cfg.DefaultMetric, now),
		compiler: query.NewCompiler(reg),
		executor: query.NewExecutor(),
		hist:     hist,
		log:      log,
	}
}

// LoadDataset atomically swaps in a new snapshot. In-flight queries keep
// the snapshot they captured at start.
func (e *Engine) LoadDataset(rows []models.CampaignRecord) *store.Snapshot {
	snap := e.st.Swap(rows)
	utils.DatasetReloads.Inc()
	e.log.Info("dataset loaded",
		slog.Int64("version", snap.Version),
		slog.Int("rows", len(snap.Rows)),
		slog.Int("dimensions", len(snap.Catalog.Dimensions())))
	return snap
}

// Ask answers a free-text question against the current snapshot.
func (e *Engine) Ask(ctx context.Context, question string) (*models.QueryResult, error) {
	start := time.Now()
	snap := e.st.Current()
	if snap == nil {
		utils.Queries.WithLabelValues(errs.CodeDatasetUnavailable).Inc()
		return nil, errs.DatasetUnavailable()
	}
	qi, err := e.resolver.Resolve(question, snap.Catalog)
	if err != nil {
		e.countErr(err)
		return nil, err
	}
	res, err := e.run(ctx, snap, qi)
	if err != nil {
		e.countErr(err)
		return nil, err
	}
	e.record(ctx, question, qi, res)
	utils.Queries.WithLabelValues("ok").Inc()
	utils.QueryDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// ExecuteRaw is the escape hatch for advanced callers: a structured intent
// bypasses the intent resolver but still passes through the compiler, so
// the ratio-of-sums rule holds regardless of entry point.
func (e *Engine) ExecuteRaw(ctx context.Context, qi models.QueryIntent) (*models.QueryResult, error) {
	snap := e.st.Current()
	if snap == nil {
		utils.Queries.WithLabelValues(errs.CodeDatasetUnavailable).Inc()
		return nil, errs.DatasetUnavailable()
	}
	if err := e.validateRaw(snap, &qi); err != nil {
		e.countErr(err)
		return nil, err
	}
	res, err := e.run(ctx, snap, qi)
	if err != nil {
		e.countErr(err)
		return nil, err
	}
	e.record(ctx, "", qi, res)
	utils.Queries.WithLabelValues("ok").Inc()
	return res, nil
}

// Schema reports dimensions of the loaded dataset plus every registry
// metric whose base columns the dataset actually carries.
func (e *Engine) Schema() (dims, mets []string, err error) {
	snap := e.st.Current()
	if snap == nil {
		return nil, nil, errs.DatasetUnavailable()
	}
	present := map[string]bool{}
	for _, m := range snap.Catalog.Metrics() {
		present[m] = true
	}
	for _, def := range e.reg.List() {
		ok := true
		for _, b := range def.Bases() {
			if !present[b] {
				ok = false
				break
			}
		}
		if ok {
			mets = append(mets, def.Name)
		}
	}
	return snap.Catalog.Dimensions(), mets, nil
}

// FilterOptions lists the distinct values of a dimension for filter pickers.
func (e *Engine) FilterOptions(dimension string) ([]string, error) {
	snap := e.st.Current()
	if snap == nil {
		return nil, errs.DatasetUnavailable()
	}
	return snap.Catalog.DistinctValues(dimension)
}

// Recent returns the latest history entries, newest first.
func (e *Engine) Recent(ctx context.Context, n int) ([]history.Entry, error) {
	return e.hist.Recent(ctx, n)
}

func (e *Engine) run(ctx context.Context, snap *store.Snapshot, qi models.QueryIntent) (*models.QueryResult, error) {
	cur, base, note, err := e.compiler.Compile(qi)
	if err != nil {
		return nil, err
	}

	var rows []models.ResultRow
	if base != nil {
		rows, err = e.executor.ExecuteComparison(ctx, snap, cur, *base)
	} else {
		rows, err = e.executor.Execute(ctx, snap, cur)
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cur.Columns))
	for i, c := range cur.Columns {
		names[i] = c.Def.Name
	}
	res := &models.QueryResult{
		Dimension: cur.Dimension,
		Metrics:   names,
		Rows:      rows,
		Window:    cur.Window,
		Note:      note,
	}
	if base != nil {
		res.Baseline = base.Window
	}

	first := names[0]
	switch qi.Analysis {
	case models.AnalysisAnomalies:
		res.Anomalies = stats.DetectAnomalies(rows, first, e.cfg.AnomalyStdDev)
	case models.AnalysisTrend:
		res.Trend = stats.FitTrend(rows, first, e.cfg.TrendWindow)
	case models.AnalysisPareto:
		res.Pareto = stats.ParetoRank(rows, first, e.cfg.ParetoCoverage)
	}
	return res, nil
}

// validateRaw canonicalizes a caller-built intent against the snapshot
// catalog, applying the same failure contract as the resolver.
func (e *Engine) validateRaw(snap *store.Snapshot, qi *models.QueryIntent) error {
	if qi.Aggregation == "" {
		qi.Aggregation = models.AggSum
	}
	if len(qi.Metrics) == 0 {
		qi.Metrics = []string{e.cfg.DefaultMetric}
	}
	if qi.Dimension != "" && qi.Dimension != "Date" {
		dim, err := snap.Catalog.ResolveDimension(qi.Dimension)
		if err != nil {
			return err
		}
		qi.Dimension = dim
	}
	for i, f := range qi.Filters {
		dim, err := snap.Catalog.ResolveDimension(f.Dimension)
		if err != nil {
			return err
		}
		val, err := snap.Catalog.ResolveValue(dim, f.Value)
		if err != nil {
			return err
		}
		qi.Filters[i] = models.DimFilter{Dimension: dim, Value: val}
	}
	if qi.Window != nil && !qi.Window.Valid() {
		return errs.InvalidTimeRange("window start is after its end")
	}
	if qi.Comparison != nil {
		pair, err := temporal.CustomPair(qi.Comparison.Current, qi.Comparison.Baseline)
		if err != nil {
			return err
		}
		if qi.Comparison.Mode == "" || qi.Comparison.Mode == models.ModeCustom {
			qi.Comparison = &pair
		}
	}
	return nil
}

func (e *Engine) record(ctx context.Context, question string, qi models.QueryIntent, res *models.QueryResult) {
	entry := history.Entry{
		ID:       uuid.NewString(),
		Question: question,
		Intent:   qi,
		Digest:   digest(res),
		At:       time.Now().UTC(),
	}
	if err := e.hist.Record(ctx, entry); err != nil {
		// history is not authoritative; an unavailable backend must not
		// fail the query
		e.log.Warn("history record failed", slog.String("err", err.Error()))
	}
}

func (e *Engine) countErr(err error) {
	if se, ok := err.(*errs.Error); ok {
		utils.Queries.WithLabelValues(se.Code).Inc()
		return
	}
	utils.Queries.WithLabelValues(errs.CodeExecution).Inc()
}

func digest(res *models.QueryResult) string {
	b, _ := json.Marshal(res)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
