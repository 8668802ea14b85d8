package opcount

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSnapshot_FreshRequestIsZero(t *testing.T) {
	r := NewRegistry()
	got := r.Snapshot("req-1")
	if got.Reads != 0 || got.Writes != 0 || got.Deletes != 0 || len(got.Trace) != 0 {
		t.Fatalf("fresh snapshot not zero: %+v", got)
	}
	if r.Len() != 0 {
		t.Fatalf("Snapshot must not register counters, have %d", r.Len())
	}
}

func TestRecord_CreateThenFindAll(t *testing.T) {
	r := NewRegistry()
	r.Record("req-1", "chat", "create", KindWrite, 1)
	r.Record("req-1", "chat", "findAll", KindRead, 3)

	got := r.Snapshot("req-1")
	if got.Writes != 1 {
		t.Fatalf("Writes = %d, want 1", got.Writes)
	}
	if got.Reads != 3 {
		t.Fatalf("Reads = %d, want 3", got.Reads)
	}
	if got.Deletes != 0 {
		t.Fatalf("Deletes = %d, want 0", got.Deletes)
	}
	wantTrace := []string{"chat.create", "chat.findAll"}
	if !reflect.DeepEqual(got.Trace, wantTrace) {
		t.Fatalf("Trace = %v, want %v", got.Trace, wantTrace)
	}
}

func TestRecord_EmptyRequestIDIsIgnored(t *testing.T) {
	r := NewRegistry()
	r.Record("", "chat", "create", KindWrite, 1)
	if r.Len() != 0 {
		t.Fatalf("expected no counters, have %d", r.Len())
	}
}

func TestDiscard_RemovesAndReturnsFinalCount(t *testing.T) {
	r := NewRegistry()
	r.Record("req-1", "user", "deleteById", KindDelete, 1)

	got := r.Discard("req-1")
	if got.Deletes != 1 || len(got.Trace) != 1 {
		t.Fatalf("unexpected final count: %+v", got)
	}
	if r.Len() != 0 {
		t.Fatalf("counter not discarded")
	}
	if again := r.Discard("req-1"); again.Deletes != 0 {
		t.Fatalf("second discard should be zero, got %+v", again)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	r := NewRegistry()
	r.Record("req-1", "chat", "create", KindWrite, 1)
	snap := r.Snapshot("req-1")
	snap.Trace[0] = "tampered"
	if got := r.Snapshot("req-1"); got.Trace[0] != "chat.create" {
		t.Fatalf("snapshot trace aliases registry state: %v", got.Trace)
	}
}

func TestRecord_ConcurrentRequests(t *testing.T) {
	r := NewRegistry()
	const requests = 8
	const perRequest = 50

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < perRequest; j++ {
				r.Record(id, "chat", "findById", KindRead, 1)
			}
		}(fmt.Sprintf("req-%d", i))
	}
	wg.Wait()

	for i := 0; i < requests; i++ {
		got := r.Snapshot(fmt.Sprintf("req-%d", i))
		if got.Reads != perRequest {
			t.Fatalf("request %d: Reads = %d, want %d", i, got.Reads, perRequest)
		}
		if len(got.Trace) != perRequest {
			t.Fatalf("request %d: trace length = %d, want %d", i, len(got.Trace), perRequest)
		}
	}
}

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRegistry().WithMetrics(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Record("req-1", "chat", "create", KindWrite, 1)
	r.Record("req-1", "chat", "findPaged", KindRead, 5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 1 || families[0].GetName() != "kaiwa_store_operations_total" {
		t.Fatalf("unexpected metric families: %v", families)
	}
	var total float64
	for _, m := range families[0].GetMetric() {
		total += m.GetCounter().GetValue()
	}
	if total != 6 {
		t.Fatalf("operations total = %v, want 6", total)
	}
}
