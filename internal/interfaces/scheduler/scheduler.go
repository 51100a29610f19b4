package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Job is a unit of work executed by the worker pool. Reminder sweeps are
// the only implementation today but the interface leaves room for
// cleanup or backfill jobs later.
type Job interface {
	// Execute runs the job. Context should be respected for cancellation
	// and timeouts.
	Execute(ctx context.Context) error

	// UserID returns the user the job works on behalf of, for logging.
	UserID() string

	// Description returns a human-readable description of the job.
	Description() string
}

// ScheduleTime represents a specific time of day when the scheduler should run.
type ScheduleTime struct {
	Hour   int
	Minute int
}

// String returns the time in HH:MM format.
func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses a time string in HH:MM format.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	var hour, minute int
	_, err := fmt.Sscanf(s, "%d:%d", &hour, &minute)
	if err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}

	if hour < 0 || hour > 23 {
		return ScheduleTime{}, fmt.Errorf("invalid hour: %d (must be 0-23)", hour)
	}
	if minute < 0 || minute > 59 {
		return ScheduleTime{}, fmt.Errorf("invalid minute: %d (must be 0-59)", minute)
	}

	return ScheduleTime{Hour: hour, Minute: minute}, nil
}

// Scheduler runs the job provider at specific times of day and feeds the
// resulting jobs to a worker pool.
type Scheduler struct {
	workerPool    *WorkerPool
	scheduleTimes []ScheduleTime
	runOnStartup  bool
	jobProvider   func(context.Context) ([]Job, error)

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	lastRunKey string
	mu         sync.Mutex
}

// Config holds scheduler configuration.
type Config struct {
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
	JobProvider   func(context.Context) ([]Job, error)
}

// New creates a scheduler with the given configuration.
func New(cfg Config) (*Scheduler, error) {
	scheduleTimes := make([]ScheduleTime, 0, len(cfg.ScheduleTimes))
	for _, timeStr := range cfg.ScheduleTimes {
		st, err := ParseScheduleTime(timeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule time %q: %w", timeStr, err)
		}
		scheduleTimes = append(scheduleTimes, st)
	}

	if len(scheduleTimes) == 0 {
		return nil, fmt.Errorf("at least one schedule time is required")
	}

	workerPool := NewWorkerPool(cfg.WorkerCount, cfg.JobDelay, cfg.QueueSize)
	ctx, cancel := context.WithCancel(context.Background())

	log.Printf("Scheduler initialized with %d schedule times: %v", len(scheduleTimes), cfg.ScheduleTimes)

	return &Scheduler{
		workerPool:    workerPool,
		scheduleTimes: scheduleTimes,
		runOnStartup:  cfg.RunOnStartup,
		jobProvider:   cfg.JobProvider,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start launches the scheduler and its worker pool.
func (s *Scheduler) Start() {
	s.workerPool.Start()

	if s.runOnStartup {
		log.Println("Scheduler: running initial sweep on startup")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJobs()
		}()
	}

	s.wg.Add(1)
	go s.scheduleLoop()

	log.Println("Scheduler started")
}

func (s *Scheduler) scheduleLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case now := <-ticker.C:
			if s.shouldRun(now) {
				log.Printf("Scheduler: triggered at %s", now.Format("15:04"))
				s.runJobs()
			}
		}
	}
}

// shouldRun reports whether now matches a scheduled time. The last run key
// guards against a minute firing twice.
func (s *Scheduler) shouldRun(now time.Time) bool {
	currentKey := now.Format("2006-01-02-15:04")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRunKey == currentKey {
		return false
	}

	for _, st := range s.scheduleTimes {
		if now.Hour() == st.Hour && now.Minute() == st.Minute {
			s.lastRunKey = currentKey
			return true
		}
	}

	return false
}

func (s *Scheduler) runJobs() {
	if s.jobProvider == nil {
		log.Println("Scheduler: no job provider configured")
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		log.Printf("Scheduler: failed to build jobs: %v", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	log.Printf("Scheduler: submitting %d jobs to worker pool", len(jobs))
	s.workerPool.SubmitBatch(jobs)
}

// Shutdown gracefully stops the scheduler and worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	log.Println("Scheduler: initiating graceful shutdown...")

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Println("Scheduler: timeout waiting for schedule loop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)

	log.Println("Scheduler: shutdown complete")
}
