// Package health aggregates liveness probes for the backing stores. The
// MongoDB and Redis adapters both expose HealthCheck(ctx) error and register
// here under their component names.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Probe reports whether one component is reachable.
type Probe func(ctx context.Context) error

// Result is the outcome of one probe.
type Result struct {
	Name     string        `json:"name"`
	Healthy  bool          `json:"healthy"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report aggregates all probe results. Healthy is false when any probe fails.
type Report struct {
	Healthy bool     `json:"healthy"`
	Checks  []Result `json:"checks"`
}

// Registry holds named probes and runs them concurrently on demand.
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewRegistry creates an empty probe registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[string]Probe)}
}

// Register adds a probe under name, replacing any previous one.
func (r *Registry) Register(name string, probe Probe) {
	r.mu.Lock()
	r.probes[name] = probe
	r.mu.Unlock()
}

// Unregister removes the probe under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.probes, name)
	r.mu.Unlock()
}

// Check runs every registered probe concurrently and aggregates the results,
// ordered by probe name.
func (r *Registry) Check(ctx context.Context) Report {
	r.mu.RLock()
	names := make([]string, 0, len(r.probes))
	probes := make([]Probe, 0, len(r.probes))
	for name, probe := range r.probes {
		names = append(names, name)
		probes = append(probes, probe)
	}
	r.mu.RUnlock()

	results := make([]Result, len(probes))
	var wg sync.WaitGroup
	for i := range probes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Now()
			err := probes[i](ctx)
			result := Result{
				Name:     names[i],
				Healthy:  err == nil,
				Duration: time.Since(start),
			}
			if err != nil {
				result.Error = err.Error()
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	report := Report{Healthy: true, Checks: results}
	for _, res := range results {
		if !res.Healthy {
			report.Healthy = false
		}
	}
	return report
}
