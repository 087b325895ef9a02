package query

import (
	"context"
	"sort"
	"sync"

	"github.com/ashwinsharma89/adlens/internal/errs"
	"github.com/ashwinsharma89/adlens/internal/metrics"
	"github.com/ashwinsharma89/adlens/internal/models"
	"github.com/ashwinsharma89/adlens/internal/store"
)

// Executor runs plans against an immutable snapshot. Ordering is
// deterministic: the requested sort key first, nulls last, ties broken by
// dimension key ascending.
type Executor struct{}

func NewExecutor() *Executor { return &Executor{} }

type accumulator struct {
	sums  map[string]float64
	mins  map[string]float64
	maxs  map[string]float64
	seen  map[string]bool
	count int
}

// Execute aggregates one plan into ordered result rows.
func (e *Executor) Execute(ctx context.Context, snap *store.Snapshot, p Plan) ([]models.ResultRow, error) {
	if snap == nil {
		return nil, errs.DatasetUnavailable()
	}
	if len(p.Columns) == 0 {
		return nil, errs.Execution("plan has no metric columns")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := map[string]*accumulator{}
	for _, r := range snap.Rows {
		if p.Window != nil && !p.Window.Contains(r.Date) {
			continue
		}
		if !matches(r, p.Filters) {
			continue
		}
		key := groupKey(r, p.Dimension)
		acc := groups[key]
		if acc == nil {
			acc = &accumulator{sums: map[string]float64{}, mins: map[string]float64{}, maxs: map[string]float64{}, seen: map[string]bool{}}
			groups[key] = acc
		}
		acc.count++
		for _, b := range p.Bases {
			v, ok := r.Bases[b]
			if !ok {
				continue
			}
			acc.sums[b] += v
			if !acc.seen[b] {
				acc.seen[b] = true
				acc.mins[b], acc.maxs[b] = v, v
				continue
			}
			if v < acc.mins[b] {
				acc.mins[b] = v
			}
			if v > acc.maxs[b] {
				acc.maxs[b] = v
			}
		}
	}

	rows := make([]models.ResultRow, 0, len(groups))
	for key, acc := range groups {
		row := models.ResultRow{Key: key, Values: map[string]*float64{}}
		for _, col := range p.Columns {
			row.Values[col.Def.Name] = finalize(col, acc)
		}
		if passesHaving(row, p.Having) {
			rows = append(rows, row)
		}
	}

	sortRows(rows, p.SortBy, p.SortDesc)
	if p.Limit > 0 && len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}
	return rows, nil
}

// ExecuteComparison runs the current and baseline plans concurrently
// against the same snapshot and joins the two by dimension key. Keys
// missing on either side are kept, with additive metrics zero-filled and
// ratios left null (insufficient data), never dropped.
func (e *Executor) ExecuteComparison(ctx context.Context, snap *store.Snapshot, cur, base Plan) ([]models.ResultRow, error) {
	var (
		wg       sync.WaitGroup
		curRows  []models.ResultRow
		baseRows []models.ResultRow
		curErr   error
		baseErr  error
	)
	// the two windows are independent sub-queries; join is deterministic
	// once both complete
	wg.Add(2)
	go func() {
		defer wg.Done()
		curRows, curErr = e.Execute(ctx, snap, unbounded(cur))
	}()
	go func() {
		defer wg.Done()
		baseRows, baseErr = e.Execute(ctx, snap, unbounded(base))
	}()
	wg.Wait()
	if curErr != nil {
		return nil, curErr
	}
	if baseErr != nil {
		return nil, baseErr
	}

	curByKey := map[string]models.ResultRow{}
	for _, r := range curRows {
		curByKey[r.Key] = r
	}
	baseByKey := map[string]models.ResultRow{}
	for _, r := range baseRows {
		baseByKey[r.Key] = r
	}

	keys := make([]string, 0, len(curByKey))
	seen := map[string]bool{}
	for _, r := range curRows {
		keys = append(keys, r.Key)
		seen[r.Key] = true
	}
	for _, r := range baseRows {
		if !seen[r.Key] {
			keys = append(keys, r.Key)
		}
	}

	joined := make([]models.ResultRow, 0, len(keys))
	for _, key := range keys {
		row := models.ResultRow{
			Key:      key,
			Values:   sideValues(curByKey, key, cur),
			Baseline: sideValues(baseByKey, key, base),
			Delta:    map[string]*float64{},
			DeltaPct: map[string]*float64{},
		}
		for _, col := range cur.Columns {
			name := col.Def.Name
			cv, bv := row.Values[name], row.Baseline[name]
			if cv == nil || bv == nil {
				row.Delta[name], row.DeltaPct[name] = nil, nil
				continue
			}
			d := *cv - *bv
			row.Delta[name] = &d
			if *bv != 0 {
				pct := d / *bv * 100
				row.DeltaPct[name] = &pct
			}
		}
		joined = append(joined, row)
	}

	sortRows(joined, cur.SortBy, cur.SortDesc)
	if cur.Limit > 0 && len(joined) > cur.Limit {
		joined = joined[:cur.Limit]
	}
	return joined, nil
}

// unbounded strips sort/limit from a side plan; ordering and truncation
// apply to the joined result, otherwise the two sides could keep different
// key sets.
func unbounded(p Plan) Plan {
	p.SortBy, p.Limit = "", 0
	return p
}

// sideValues returns a side's values for a key, zero-filling additive
// metrics when the key is missing on that side.
func sideValues(byKey map[string]models.ResultRow, key string, p Plan) map[string]*float64 {
	if r, ok := byKey[key]; ok {
		return r.Values
	}
	vals := map[string]*float64{}
	for _, col := range p.Columns {
		if col.Def.Kind == metrics.KindRatio {
			vals[col.Def.Name] = nil
			continue
		}
		zero := 0.0
		vals[col.Def.Name] = &zero
	}
	return vals
}

func finalize(col Column, acc *accumulator) *float64 {
	if col.Def.Kind == metrics.KindRatio {
		v, ok := col.Def.Value(acc.sums)
		if !ok {
			return nil
		}
		return &v
	}
	var v float64
	switch col.Agg {
	case models.AggAvg:
		if acc.count == 0 {
			return nil
		}
		v = acc.sums[col.Def.Base] / float64(acc.count)
	case models.AggCount:
		v = float64(acc.count)
	case models.AggMin:
		v = acc.mins[col.Def.Base]
	case models.AggMax:
		v = acc.maxs[col.Def.Base]
	default:
		v = acc.sums[col.Def.Base]
	}
	return &v
}

func matches(r models.CampaignRecord, filters []models.DimFilter) bool {
	for _, f := range filters {
		if r.Dims[f.Dimension] != f.Value {
			return false
		}
	}
	return true
}

func passesHaving(row models.ResultRow, having []models.HavingFilter) bool {
	for _, h := range having {
		v := row.Values[h.Metric]
		if v == nil {
			return false
		}
		if h.Op == ">" && !(*v > h.Value) {
			return false
		}
		if h.Op == "<" && !(*v < h.Value) {
			return false
		}
	}
	return true
}

func groupKey(r models.CampaignRecord, dimension string) string {
	switch dimension {
	case "":
		return "All"
	case "Date":
		return r.Date.Format("2006-01-02")
	default:
		return r.Dims[dimension]
	}
}

func sortRows(rows []models.ResultRow, sortBy string, desc bool) {
	sort.Slice(rows, func(i, j int) bool {
		if sortBy != "" {
			vi, vj := rows[i].Values[sortBy], rows[j].Values[sortBy]
			switch {
			case vi == nil && vj != nil:
				return false // nulls sort last either direction
			case vi != nil && vj == nil:
				return true
			case vi != nil && vj != nil && *vi != *vj:
				if desc {
					return *vi > *vj
				}
				return *vi < *vj
			}
		}
		return rows[i].Key < rows[j].Key
	})
}
