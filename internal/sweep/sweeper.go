// Package sweep runs periodic hygiene tasks (expired OTP challenges, expired
// refresh tokens) as an explicitly owned component with a start/stop
// lifecycle, wired into the process shutdown sequence instead of registered
// as fire-and-forget timers.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is one named periodic job. Run returns how many records it removed.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Sweeper owns a goroutine per task. Tasks are best-effort: a failing run is
// logged and retried on the next tick.
type Sweeper struct {
	tasks []Task
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func New(tasks ...Task) *Sweeper {
	return &Sweeper{tasks: tasks, stop: make(chan struct{})}
}

// Start launches one ticker loop per task. Call Stop to terminate them.
func (s *Sweeper) Start() {
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(t)
	}
}

// Stop terminates all task loops and waits for in-flight runs to finish.
// Safe to call more than once.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Sweeper) loop(t Task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), t.Interval)
			removed, err := t.Run(ctx)
			cancel()
			if err != nil {
				slog.Warn("sweep failed", "task", t.Name, "err", err)
				continue
			}
			if removed > 0 {
				slog.Info("sweep removed expired records", "task", t.Name, "count", removed)
			}
		}
	}
}
