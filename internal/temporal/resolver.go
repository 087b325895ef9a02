package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ashwinsharma89/adlens/internal/errs"
	"github.com/ashwinsharma89/adlens/internal/models"
)

// Resolver turns relative time phrases and comparison modes into concrete
// inclusive date windows. The anchor date is always caller-supplied so
// results are deterministic; production callers pass time.Now().
//
// Boundary rule: when the anchor sits on a period boundary (first day of a
// month/quarter, or a Sunday for weeks), the "current" unit is the
// just-completed one, never the in-progress one. Comparing a partial
// period against a full one is exactly the silent-wrong-number class of
// bug this engine exists to prevent.

var (
	reLastN   = regexp.MustCompile(`last (\d+) (day|week|month)s?`)
	reQuarter = regexp.MustCompile(`q([1-4])\s*(?:of\s*)?(\d{4})`)
)

// ResolveRange parses a relative phrase into a window. The second return is
// false when the phrase contains no recognizable time expression.
func ResolveRange(phrase string, anchor time.Time) (models.TimeWindow, bool, error) {
	p := strings.ToLower(phrase)
	a := day(anchor)

	if m := reLastN.FindStringSubmatch(p); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n <= 0 {
			return models.TimeWindow{}, true, errs.InvalidTimeRange("period count must be positive")
		}
		switch m[2] {
		case "day":
			return window(a.AddDate(0, 0, -(n - 1)), a), true, nil
		case "week":
			return window(a.AddDate(0, 0, -(7*n - 1)), a), true, nil
		case "month":
			return window(a.AddDate(0, -n, 0).AddDate(0, 0, 1), a), true, nil
		}
	}
	if m := reQuarter.FindStringSubmatch(p); m != nil {
		q, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		start := time.Date(y, time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC)
		return window(start, start.AddDate(0, 3, 0).AddDate(0, 0, -1)), true, nil
	}

	switch {
	case strings.Contains(p, "year to date"), strings.Contains(p, "ytd"):
		return window(time.Date(a.Year(), 1, 1, 0, 0, 0, 0, time.UTC), a), true, nil
	case strings.Contains(p, "today"):
		return window(a, a), true, nil
	case strings.Contains(p, "yesterday"):
		y := a.AddDate(0, 0, -1)
		return window(y, y), true, nil
	case strings.Contains(p, "this week"):
		return window(mondayOf(a), a), true, nil
	case strings.Contains(p, "last week"):
		return completedWeek(a), true, nil
	case strings.Contains(p, "this month"):
		if a.Day() == 1 {
			return completedMonth(a), true, nil
		}
		return window(firstOfMonth(a), a), true, nil
	case strings.Contains(p, "last month"):
		return completedMonth(a), true, nil
	case strings.Contains(p, "this quarter"):
		if a.Equal(firstOfQuarter(a)) {
			return completedQuarter(a), true, nil
		}
		return window(firstOfQuarter(a), a), true, nil
	case strings.Contains(p, "last quarter"):
		return completedQuarter(a), true, nil
	case strings.Contains(p, "this year"):
		return window(time.Date(a.Year(), 1, 1, 0, 0, 0, 0, time.UTC), a), true, nil
	case strings.Contains(p, "last year"):
		start := time.Date(a.Year()-1, 1, 1, 0, 0, 0, 0, time.UTC)
		return window(start, start.AddDate(1, 0, 0).AddDate(0, 0, -1)), true, nil
	}
	return models.TimeWindow{}, false, nil
}

// ResolveComparison builds a disjoint, equal-length window pair for the
// auto modes wow, mom, qoq and yoy.
func ResolveComparison(mode string, anchor time.Time) (models.ComparisonWindowPair, error) {
	a := day(anchor)
	var cur, base models.TimeWindow
	switch strings.ToLower(mode) {
	case "wow":
		cur = completedWeek(a)
		base = PreviousPeriod(cur)
	case "mom":
		cur = completedMonth(a)
		base = window(firstOfMonth(cur.Start.AddDate(0, -1, 0)), cur.Start.AddDate(0, 0, -1))
	case "qoq":
		cur = completedQuarter(a)
		base = window(cur.Start.AddDate(0, -3, 0), cur.Start.AddDate(0, 0, -1))
	case "yoy":
		cur = completedMonth(a)
		base = window(cur.Start.AddDate(-1, 0, 0), cur.End.AddDate(-1, 0, 0))
	default:
		return models.ComparisonWindowPair{}, errs.InvalidTimeRange("unknown comparison mode " + mode)
	}
	return models.ComparisonWindowPair{Current: cur, Baseline: base, Mode: models.ModeAuto}, nil
}

// PreviousPeriod returns the contiguous window of identical length
// immediately preceding w.
func PreviousPeriod(w models.TimeWindow) models.TimeWindow {
	n := w.Days()
	end := w.Start.AddDate(0, 0, -1)
	return window(end.AddDate(0, 0, -(n-1)), end)
}

// CustomPair validates caller-supplied windows. Unequal lengths are allowed
// but annotated so a caller can surface the asymmetry; they are never an
// error.
func CustomPair(current, baseline models.TimeWindow) (models.ComparisonWindowPair, error) {
	if !current.Valid() {
		return models.ComparisonWindowPair{}, errs.InvalidTimeRange("current window start is after its end")
	}
	if !baseline.Valid() {
		return models.ComparisonWindowPair{}, errs.InvalidTimeRange("baseline window start is after its end")
	}
	pair := models.ComparisonWindowPair{Current: current, Baseline: baseline, Mode: models.ModeCustom}
	if current.Days() != baseline.Days() {
		pair.Note = fmt.Sprintf("asymmetric windows: current spans %d days, baseline %d days", current.Days(), baseline.Days())
	}
	return pair, nil
}

// completedWeek is the most recent full Monday-Sunday week ending on or
// before the anchor.
func completedWeek(a time.Time) models.TimeWindow {
	end := a
	for end.Weekday() != time.Sunday {
		end = end.AddDate(0, 0, -1)
	}
	return window(end.AddDate(0, 0, -6), end)
}

// completedMonth is the most recent full calendar month as of the anchor.
// "Last month" issued on the 1st resolves to the previous calendar month.
func completedMonth(a time.Time) models.TimeWindow {
	lastDay := firstOfMonth(a).AddDate(0, 1, 0).AddDate(0, 0, -1)
	if a.Equal(lastDay) {
		return window(firstOfMonth(a), lastDay)
	}
	start := firstOfMonth(a).AddDate(0, -1, 0)
	return window(start, firstOfMonth(a).AddDate(0, 0, -1))
}

func completedQuarter(a time.Time) models.TimeWindow {
	qEnd := firstOfQuarter(a).AddDate(0, 3, 0).AddDate(0, 0, -1)
	if a.Equal(qEnd) {
		return window(firstOfQuarter(a), qEnd)
	}
	start := firstOfQuarter(a).AddDate(0, -3, 0)
	return window(start, firstOfQuarter(a).AddDate(0, 0, -1))
}

func mondayOf(a time.Time) time.Time {
	for a.Weekday() != time.Monday {
		a = a.AddDate(0, 0, -1)
	}
	return a
}

func firstOfMonth(a time.Time) time.Time {
	return time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func firstOfQuarter(a time.Time) time.Time {
	q := (int(a.Month()) - 1) / 3
	return time.Date(a.Year(), time.Month(3*q+1), 1, 0, 0, 0, 0, time.UTC)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func window(start, end time.Time) models.TimeWindow {
	return models.TimeWindow{Start: day(start), End: day(end)}
}
