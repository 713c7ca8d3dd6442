package monitoring

import (
	"context"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is the outcome of pinging one dependency
type HealthCheck struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// HealthReport represents the overall health report
type HealthReport struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Checks    []HealthCheck `json:"checks"`
}

// PingFunc reports whether a dependency is reachable
type PingFunc func(ctx context.Context) error

type dependency struct {
	name string
	ping PingFunc
}

// HealthManager pings the dependencies the gate cannot serve without.
// The service is unhealthy while any of them fails.
type HealthManager struct {
	serviceName    string
	serviceVersion string
	timeout        time.Duration

	mu   sync.RWMutex
	deps []dependency
}

// NewHealthManager creates a new health manager
func NewHealthManager(serviceName, serviceVersion string) *HealthManager {
	return &HealthManager{
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
		timeout:        2 * time.Second,
	}
}

// Register adds a dependency; checks run in registration order
func (hm *HealthManager) Register(name string, ping PingFunc) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.deps = append(hm.deps, dependency{name: name, ping: ping})
}

// CheckHealth pings every dependency and returns a report
func (hm *HealthManager) CheckHealth(ctx context.Context) *HealthReport {
	hm.mu.RLock()
	deps := append([]dependency(nil), hm.deps...)
	hm.mu.RUnlock()

	report := &HealthReport{
		Status:    HealthStatusHealthy,
		Service:   hm.serviceName,
		Version:   hm.serviceVersion,
		Timestamp: time.Now(),
		Checks:    make([]HealthCheck, 0, len(deps)),
	}

	for _, dep := range deps {
		check := hm.ping(ctx, dep)
		if check.Status == HealthStatusUnhealthy {
			report.Status = HealthStatusUnhealthy
		}
		report.Checks = append(report.Checks, check)
	}

	return report
}

func (hm *HealthManager) ping(ctx context.Context, dep dependency) HealthCheck {
	pingCtx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	start := time.Now()
	err := dep.ping(pingCtx)
	check := HealthCheck{Name: dep.name, Status: HealthStatusHealthy, Duration: time.Since(start)}
	if err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = err.Error()
	}
	return check
}
