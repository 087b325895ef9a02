package history

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryFIFOEviction(t *testing.T) {
	evicted := 0
	m := NewMemory(3, func() { evicted++ })
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := m.Record(ctx, Entry{ID: fmt.Sprintf("e%d", i), Question: fmt.Sprintf("q%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := m.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want bounded to 3", len(got))
	}
	// newest first
	if got[0].ID != "e4" || got[2].ID != "e2" {
		t.Fatalf("order = %v", got)
	}
	if evicted != 2 {
		t.Fatalf("evictions = %d, want 2", evicted)
	}
}

func TestMemoryRecentLimit(t *testing.T) {
	m := NewMemory(10, nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		m.Record(ctx, Entry{ID: fmt.Sprintf("e%d", i)})
	}
	got, _ := m.Recent(ctx, 2)
	if len(got) != 2 || got[0].ID != "e3" || got[1].ID != "e2" {
		t.Fatalf("got %v", got)
	}
}
