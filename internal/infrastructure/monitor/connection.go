package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Check probes one dependency; a nil error means healthy.
type Check func(ctx context.Context) error

type namedCheck struct {
	name string
	fn   Check
}

// Monitor runs registered checks on a cron schedule and caches the outcome.
type Monitor struct {
	checks  []namedCheck
	timeout time.Duration

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		timeout:  3 * time.Second,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
		status:   Status{Services: map[string]bool{}},
	}
}

// Register adds a named check. Call before Start.
func (m *Monitor) Register(name string, fn Check) {
	if fn == nil {
		return
	}
	m.checks = append(m.checks, namedCheck{name: name, fn: fn})
}

func (m *Monitor) Start() error {
	m.Refresh(context.Background())
	schedule := fmt.Sprintf("@every %ds", int(m.interval.Seconds()))
	if _, err := m.cron.AddFunc(schedule, func() { m.Refresh(context.Background()) }); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	services := make(map[string]bool, len(m.status.Services))
	for name, ok := range m.status.Services {
		services[name] = ok
	}
	return Status{Services: services, LastCheck: m.status.LastCheck}
}

// Refresh runs every check concurrently and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	var (
		resultsMu sync.Mutex
		results   = make(map[string]bool, len(m.checks))
		g         errgroup.Group
	)

	for _, check := range m.checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			err := check.fn(checkCtx)
			if err != nil {
				m.logger.Warn("dependency check failed", zap.String("service", check.name), zap.Error(err))
			}
			resultsMu.Lock()
			results[check.name] = err == nil
			resultsMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Status{Services: results, LastCheck: time.Now().UTC()}
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}
