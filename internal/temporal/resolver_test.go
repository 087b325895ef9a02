package temporal

import (
	"testing"
	"time"

	"github.com/ashwinsharma89/adlens/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 2026-08-19 is a Wednesday.
var anchor = date(2026, 8, 19)

func TestLastNDays(t *testing.T) {
	w, found, err := ResolveRange("last 7 days", anchor)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if !w.Start.Equal(date(2026, 8, 13)) || !w.End.Equal(anchor) {
		t.Fatalf("window = %v..%v", w.Start, w.End)
	}
	if w.Days() != 7 {
		t.Fatalf("Days = %d, want 7", w.Days())
	}
}

func TestPreviousPeriodDisjointEqualLength(t *testing.T) {
	cur, _, _ := ResolveRange("last 7 days", anchor)
	base := PreviousPeriod(cur)
	if base.Days() != cur.Days() {
		t.Fatalf("lengths differ: %d vs %d", base.Days(), cur.Days())
	}
	if !base.End.AddDate(0, 0, 1).Equal(cur.Start) {
		t.Fatal("windows must be contiguous")
	}
	if !base.End.Before(cur.Start) {
		t.Fatal("windows must not overlap")
	}
}

func TestLastWeekIsCompleteWeek(t *testing.T) {
	w, found, _ := ResolveRange("last week", anchor)
	if !found {
		t.Fatal("phrase not recognized")
	}
	// most recent complete Mon-Sun week before Wed 2026-08-19
	if !w.Start.Equal(date(2026, 8, 10)) || !w.End.Equal(date(2026, 8, 16)) {
		t.Fatalf("window = %v..%v", w.Start, w.End)
	}
}

func TestLastMonthOnTheFirst(t *testing.T) {
	w, found, _ := ResolveRange("last month", date(2026, 9, 1))
	if !found {
		t.Fatal("phrase not recognized")
	}
	if !w.Start.Equal(date(2026, 8, 1)) || !w.End.Equal(date(2026, 8, 31)) {
		t.Fatalf("window = %v..%v, want all of August", w.Start, w.End)
	}
}

func TestThisMonthOnBoundaryUsesCompletedMonth(t *testing.T) {
	w, _, _ := ResolveRange("this month", date(2026, 9, 1))
	if !w.Start.Equal(date(2026, 8, 1)) || !w.End.Equal(date(2026, 8, 31)) {
		t.Fatalf("window = %v..%v, want the just-completed month", w.Start, w.End)
	}
}

func TestExplicitQuarter(t *testing.T) {
	w, found, _ := ResolveRange("q2 2025", anchor)
	if !found {
		t.Fatal("phrase not recognized")
	}
	if !w.Start.Equal(date(2025, 4, 1)) || !w.End.Equal(date(2025, 6, 30)) {
		t.Fatalf("window = %v..%v", w.Start, w.End)
	}
}

func TestYearToDate(t *testing.T) {
	w, found, _ := ResolveRange("year to date", anchor)
	if !found || !w.Start.Equal(date(2026, 1, 1)) || !w.End.Equal(anchor) {
		t.Fatalf("found=%v window = %v..%v", found, w.Start, w.End)
	}
}

func TestNoTemporalPhrase(t *testing.T) {
	_, found, err := ResolveRange("top campaigns by spend", anchor)
	if found || err != nil {
		t.Fatalf("found=%v err=%v, want no match", found, err)
	}
}

func TestWoWDisjoint(t *testing.T) {
	pair, err := ResolveComparison("wow", anchor)
	if err != nil {
		t.Fatal(err)
	}
	if pair.Current.Days() != 7 || pair.Baseline.Days() != 7 {
		t.Fatalf("window lengths: %d, %d", pair.Current.Days(), pair.Baseline.Days())
	}
	if !pair.Baseline.End.Before(pair.Current.Start) {
		t.Fatal("baseline must precede current without overlap")
	}
	if !pair.Current.End.Equal(date(2026, 8, 16)) {
		t.Fatalf("current end = %v, want the last complete Sunday", pair.Current.End)
	}
}

func TestMoMAndYoY(t *testing.T) {
	mom, err := ResolveComparison("mom", anchor)
	if err != nil {
		t.Fatal(err)
	}
	if !mom.Current.Start.Equal(date(2026, 7, 1)) || !mom.Baseline.Start.Equal(date(2026, 6, 1)) {
		t.Fatalf("mom = %+v", mom)
	}
	yoy, err := ResolveComparison("yoy", anchor)
	if err != nil {
		t.Fatal(err)
	}
	if !yoy.Baseline.Start.Equal(date(2025, 7, 1)) {
		t.Fatalf("yoy baseline = %v", yoy.Baseline.Start)
	}
}

func TestCustomPairAsymmetryAnnotated(t *testing.T) {
	pair, err := CustomPair(
		models.TimeWindow{Start: date(2026, 8, 1), End: date(2026, 8, 14)},
		models.TimeWindow{Start: date(2026, 7, 1), End: date(2026, 7, 7)},
	)
	if err != nil {
		t.Fatalf("asymmetric custom windows must not fail: %v", err)
	}
	if pair.Note == "" {
		t.Fatal("asymmetric windows must carry an annotation")
	}
	if pair.Mode != models.ModeCustom {
		t.Fatalf("mode = %s", pair.Mode)
	}
}

func TestCustomPairInvalidRange(t *testing.T) {
	_, err := CustomPair(
		models.TimeWindow{Start: date(2026, 8, 14), End: date(2026, 8, 1)},
		models.TimeWindow{Start: date(2026, 7, 1), End: date(2026, 7, 7)},
	)
	if err == nil {
		t.Fatal("start after end must be rejected")
	}
}
