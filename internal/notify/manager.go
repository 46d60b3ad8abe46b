// Package notify pushes selected forge events to chat webhooks.
package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/notify/platforms"
)

var errCircuitOpen = errors.New("circuit_open")

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Manager is a forge.Sink. Publish formats and enqueues without blocking; workers deliver
// with exponential retry and a per-target circuit breaker.
type Manager struct {
	cfg      Config
	adapters map[string]platforms.Adapter

	dispatchCh chan job
	retryQ     *retryQueue
	done       chan struct{}

	mu           sync.Mutex
	started      bool
	breakerByKey map[string]breakerState
}

func NewManager(cfg Config) *Manager {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}
	m := &Manager{
		cfg: cfg,
		adapters: map[string]platforms.Adapter{
			"discord": platforms.NewDiscordAdapter(client),
			"feishu":  platforms.NewFeishuAdapter(client),
		},
		dispatchCh:   make(chan job, cfg.DispatchBuffer),
		done:         make(chan struct{}),
		breakerByKey: map[string]breakerState{},
	}
	m.retryQ = newRetryQueue(m.dispatchCh, m.done)
	return m
}

// Start launches the workers. They stop when ctx ends.
func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	go func() {
		<-ctx.Done()
		close(m.done)
	}()
	return nil
}

func (m *Manager) Publish(events []forge.Event) {
	if !m.cfg.Enabled {
		return
	}
	for _, ev := range events {
		targets := matchTargets(m.cfg.Targets, ev)
		if len(targets) == 0 {
			continue
		}
		msg, ok := FormatEvent(ev)
		if !ok {
			continue
		}
		for _, t := range targets {
			if !m.enqueue(job{Target: t, Event: ev, Message: msg}) {
				metricNotifyDroppedTotal.Add(1)
			}
		}
	}
}

func (m *Manager) enqueue(j job) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.dispatchCh <- j:
		metricNotifyQueuedTotal.Add(1)
		metricNotifyQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case j := <-m.dispatchCh:
			metricNotifyQueueLen.Set(int64(len(m.dispatchCh)))
			m.process(ctx, j)
		}
	}
}

func (m *Manager) process(ctx context.Context, j job) {
	adapter := m.adapters[j.Target.Platform]
	if adapter == nil {
		metricNotifyDroppedTotal.Add(1)
		return
	}
	if err := m.beforeSend(j.key(), time.Now()); err != nil {
		metricNotifyCircuitOpenTotal.Add(1)
		m.retryOrDrop(j, err)
		return
	}
	err := adapter.Send(ctx, j.Target.Endpoint, j.Target.Secret, j.Message)
	if err != nil {
		metricNotifyFailedTotal.Add(1)
		m.afterFailure(j.key(), time.Now())
		m.retryOrDrop(j, err)
		return
	}
	metricNotifySentTotal.Add(1)
	m.afterSuccess(j.key())
}

// retryOrDrop schedules another attempt with exponential backoff. Client errors other than
// rate limiting are not retried.
func (m *Manager) retryOrDrop(j job, err error) {
	var se *platforms.StatusError
	permanent := errors.As(err, &se) && se.Status >= 400 && se.Status < 500 && se.Status != http.StatusTooManyRequests
	if permanent || j.Attempt >= m.cfg.RetryMax {
		metricNotifyRetryDroppedTotal.Add(1)
		log.Warn().Err(err).
			Str("platform", j.Target.Platform).
			Str("event", string(j.Event.Type)).
			Uint64("seq", j.Event.Seq).
			Int("attempt", j.Attempt).
			Msg("notify_dropped")
		return
	}
	j.Attempt++
	metricNotifyRetryTotal.Add(1)
	m.retryQ.Enqueue(j, m.cfg.RetryBase*time.Duration(1<<(j.Attempt-1)))
}

func (m *Manager) beforeSend(key string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.breakerByKey[key]
	if !state.openUntil.IsZero() && now.Before(state.openUntil) {
		return errCircuitOpen
	}
	return nil
}

func (m *Manager) afterFailure(key string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.breakerByKey[key]
	state.consecutiveFailures++
	if state.consecutiveFailures >= m.cfg.FailureThreshold {
		state.openUntil = now.Add(m.cfg.CircuitOpenDuration)
		state.consecutiveFailures = 0
	}
	m.breakerByKey[key] = state
}

func (m *Manager) afterSuccess(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakerByKey[key] = breakerState{}
}
