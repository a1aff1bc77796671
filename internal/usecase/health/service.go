package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is down; search still answers.
	Degraded Status = "degraded"
	// Unhealthy indicates the retrieval backend is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names.
const (
	CheckRetrieval = "retrieval"
	CheckCache     = "cache"
	CheckEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service. cache and embedding can be nil.
func New(retrieval, cache Pinger, embedding EmbeddingChecker) *Service {
	components := []component{{name: CheckRetrieval, check: retrieval.Ping}}
	if cache != nil {
		components = append(components, component{name: CheckCache, check: cache.Ping})
	}
	if embedding != nil {
		components = append(components, component{name: CheckEmbedding, check: embedding.HealthCheck})
	}
	return &Service{components: components, timeout: DefaultCheckTimeout}
}

// Check runs all component checks concurrently under one timeout.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	checks := make(map[string]CheckResult, len(s.components))
	var g errgroup.Group
	for _, p := range s.components {
		g.Go(func() error {
			r := result(p.check(ctx))
			mu.Lock()
			checks[p.name] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == CheckRetrieval {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
