package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sample = `[
 {"date":"2026-08-11","dimensions":{"Platform":"Google"},"metrics":{"Impressions":1000,"Clicks":50}},
 {"date":"2026-08-12","dimensions":{"Platform":" Meta "},"metrics":{"Spend":30.5}}
]`

func TestDecodeRows(t *testing.T) {
	recs, err := DecodeRows(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0].Date != time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("date = %v", recs[0].Date)
	}
	if recs[1].Dims["Platform"] != "Meta" {
		t.Fatalf("dimension values must be trimmed, got %q", recs[1].Dims["Platform"])
	}
	if recs[0].Bases["Clicks"] != 50 {
		t.Fatalf("clicks = %v", recs[0].Bases["Clicks"])
	}
}

func TestDecodeRowsBadDate(t *testing.T) {
	_, err := DecodeRows(strings.NewReader(`[{"date":"11/08/2026","dimensions":{},"metrics":{}}]`))
	if err == nil {
		t.Fatal("a malformed date must fail the whole load, not skip the row")
	}
	if !strings.Contains(err.Error(), "row 0") {
		t.Fatalf("err = %v, want the offending row index", err)
	}
}

func TestFetchRowsRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	recs, err := NewFetcher(srv.Client()).FetchRows(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want one retry", calls.Load())
	}
}

func TestFetchRowsEmptyURL(t *testing.T) {
	if _, err := NewFetcher(NewHTTPClient(time.Second)).FetchRows(context.Background(), ""); err == nil {
		t.Fatal("expected an error")
	}
}
