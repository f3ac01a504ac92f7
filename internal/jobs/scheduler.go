package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"wastewatch/web/internal/config"
	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/session"
)

// Status is the last observed backend condition, served from memory so the
// frontend's own health endpoint never blocks on the backend.
type Status struct {
	BackendUp bool      `json:"backend_up"`
	CheckedAt time.Time `json:"checked_at"`
	Message   string    `json:"message,omitempty"`
}

// Monitor holds the most recent probe result.
type Monitor struct {
	mu     sync.RWMutex
	status Status
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) Set(status Status) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Scheduler runs the periodic backend probe and, when the in-memory session
// fallback is active, the expired-session sweep.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.ProbeConfig
	client  *gateway.Client
	monitor *Monitor
	memory  *session.MemoryRecords
	log     zerolog.Logger
}

func NewScheduler(cfg config.ProbeConfig, client *gateway.Client, monitor *Monitor, memory *session.MemoryRecords, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		cfg:     cfg,
		client:  client,
		monitor: monitor,
		memory:  memory,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.HealthSchedule, s.probeBackend); err != nil {
		return err
	}
	if s.memory != nil {
		if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.sweepSessions); err != nil {
			return err
		}
	}

	s.probeBackend()
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for any running job, bounded by a
// short timeout so shutdown never hangs on a stuck probe.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) probeBackend() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := Status{BackendUp: true, CheckedAt: time.Now()}
	if err := s.client.Health(ctx, ""); err != nil {
		status.BackendUp = false
		status.Message = gateway.Describe(err)
		s.log.Warn().Str("reason", status.Message).Msg("backend health probe failed")
	}
	s.monitor.Set(status)
}

func (s *Scheduler) sweepSessions() {
	if removed := s.memory.Sweep(time.Now()); removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("swept expired sessions")
	}
}
