package system

import (
	"context"
	"testing"
)

func TestSnapshotReturnsWithoutError(t *testing.T) {
	h := Snapshot(context.Background())
	// Host-dependent values, so only check the collectors ran and produced
	// non-negative numbers rather than asserting exact figures.
	if h.MemUsedPct < 0 || h.MemUsedPct > 100 {
		t.Errorf("MemUsedPct out of range: %v", h.MemUsedPct)
	}
	if h.Load1 < 0 {
		t.Errorf("Load1 negative: %v", h.Load1)
	}
}
