package scheduler

import (
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// Job is one tick's worth of background work. A returned error is logged
// and isolated to that tick; it never stops the scheduler.
type Job interface {
	Name() string
	Run() error
}

// Scheduler owns a single recurring job: run once immediately on Start,
// then on every interval until Stop. There is no global timer state; each
// instance carries its own lifecycle.
type Scheduler struct {
	job      Job
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func New(job Job, interval time.Duration) *Scheduler {
	return &Scheduler{job: job, interval: interval}
}

// Start launches the scheduler loop. Starting an already-running scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		log.Infof("%s scheduler already running", s.job.Name())
		return
	}

	log.Infof("starting %s scheduler (interval %s)", s.job.Name(), s.interval)
	s.stop = make(chan struct{})
	go s.loop(s.stop)
}

// Stop halts the scheduler between ticks. A tick already in flight runs to
// completion. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}

	close(s.stop)
	s.stop = nil
	log.Infof("%s scheduler stopped", s.job.Name())
}

func (s *Scheduler) loop(stop chan struct{}) {
	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-stop:
			return
		}
	}
}

func (s *Scheduler) tick() {
	if err := s.job.Run(); err != nil {
		log.Errorf("%s scheduler tick failed: %v", s.job.Name(), err)
	}
}
