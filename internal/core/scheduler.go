package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"intel_service/internal/domain/model"
)

// TickSink получает снимки после завершения тика. Приёмники работают вне
// блокировки Engine, параллельно друг другу, и могут ждать I/O
type TickSink interface {
	HandleTick(ctx context.Context, snap model.TickSnapshot) error
}

// Scheduler вызывает Engine.Tick с фиксированным периодом.
// Симулированный шаг тика равен периоду
type Scheduler struct {
	engine *Engine
	period time.Duration
	sinks  []TickSink
	log    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(engine *Engine, period time.Duration, log *slog.Logger, sinks ...TickSink) *Scheduler {
	if period <= 0 {
		period = 3 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{engine: engine, period: period, sinks: sinks, log: log}
}

// Start запускает цикл тиков. Повторный запуск ничего не делает
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.log.Info("dispatch scheduler started", "period", s.period.String())
}

// Stop останавливает цикл и ждёт его завершения, после возврата
// тиков больше нет. Повторная остановка ничего не делает
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("dispatch scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// остановка, совпавшая с тиком, должна победить
			if ctx.Err() != nil {
				return
			}
			s.tickOnce(ctx)
		}
	}
}

func (s *Scheduler) tickOnce(ctx context.Context) {
	snap, err := s.engine.Tick(s.period.Seconds())
	if errors.Is(err, model.ErrNoActiveCity) {
		s.log.Debug("tick skipped: no active city")
		return
	}
	if err != nil {
		s.log.Error("tick failed", "err", err)
		return
	}
	// приёмники только читают снимок, ошибка одного не отменяет остальные
	var g errgroup.Group
	for _, sink := range s.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.HandleTick(ctx, snap); err != nil {
				s.log.Warn("tick sink failed", "seq", snap.Seq, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
