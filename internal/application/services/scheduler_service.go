package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/models"
	"github.com/notionforge/backend/pkg/constants"
	apperrors "github.com/notionforge/backend/pkg/errors"
)

// Deployer deploys catalog templates on behalf of scheduled workflows
type Deployer interface {
	DeployTemplate(ctx context.Context, req models.DeployRequest) (*models.DeployedDatabase, error)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type scheduledJob struct {
	config   models.WorkflowConfig
	schedule cron.Schedule
	loc      *time.Location
	next     time.Time
	running  bool
}

// SchedulerService runs configured workflows on their cron schedules
type SchedulerService struct {
	deployer   Deployer
	interval   time.Duration
	maxRuntime time.Duration
	now        func() time.Time
	logger     *zap.Logger

	jobs     map[string]*scheduledJob
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	stopped  bool // Prevents double-close of stopChan
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(deployer Deployer, logger *zap.Logger) *SchedulerService {
	return &SchedulerService{
		deployer:   deployer,
		interval:   time.Duration(constants.ScheduleCheckInterval) * time.Second,
		maxRuntime: time.Duration(constants.ScheduleMaxRuntimeMins) * time.Minute,
		now:        time.Now,
		logger:     logger,
		jobs:       make(map[string]*scheduledJob),
		stopChan:   make(chan struct{}),
	}
}

// WithClock replaces the time source
func (s *SchedulerService) WithClock(now func() time.Time) *SchedulerService {
	s.now = now
	return s
}

// WithInterval changes how often due jobs are checked
func (s *SchedulerService) WithInterval(d time.Duration) *SchedulerService {
	s.interval = d
	return s
}

// Register adds or replaces a workflow. A workflow without a schedule is kept
// for manual triggers and never runs on its own.
func (s *SchedulerService) Register(cfg models.WorkflowConfig) (models.WorkflowConfig, error) {
	job := &scheduledJob{config: cfg}
	job.config.Status = constants.WorkflowStatusConfigured
	job.config.NextRun = constants.ManualTriggerRequired

	if cfg.Schedule != "" {
		schedule, err := cronParser.Parse(cfg.Schedule)
		if err != nil {
			return cfg, apperrors.NewValidationError("customSchedule", fmt.Sprintf("invalid cron expression: %v", err)).
				WithHint("Use five fields: minute hour day-of-month month day-of-week")
		}
		job.schedule = schedule
		job.loc = s.location(cfg.Timezone)
		job.next = schedule.Next(s.now().In(job.loc)).UTC()
		job.config.NextRun = job.next.Format(isoMillis)
	}

	s.mu.Lock()
	s.jobs[cfg.ID] = job
	s.mu.Unlock()

	s.logger.Info("workflow registered",
		zap.String("workflow", cfg.ID),
		zap.String("schedule", cfg.Schedule),
		zap.String("next_run", job.config.NextRun),
	)
	return job.config, nil
}

// Unregister removes a workflow; it reports whether one was registered
func (s *SchedulerService) Unregister(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	delete(s.jobs, id)
	return ok
}

// Job returns the current configuration of a registered workflow
func (s *SchedulerService) Job(id string) (models.WorkflowConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.WorkflowConfig{}, false
	}
	return job.config, true
}

// Jobs lists registered workflows ordered by id
func (s *SchedulerService) Jobs() []models.WorkflowConfig {
	s.mu.Lock()
	out := make([]models.WorkflowConfig, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.config)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Start begins the scheduler background loop and blocks until Stop
func (s *SchedulerService) Start() {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("scheduler starting", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runPendingJobs()

	for {
		select {
		case <-ticker.C:
			s.runPendingJobs()
		case <-s.stopChan:
			s.logger.Info("scheduler stopping")
			s.wg.Wait() // Wait for running jobs to complete
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// Stop gracefully stops the scheduler. It is safe to call before Start.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

// runPendingJobs launches every due job and returns how many were launched
func (s *SchedulerService) runPendingJobs() int {
	now := s.now().UTC()

	s.mu.Lock()
	var due []*scheduledJob
	for _, job := range s.jobs {
		if s.isJobDue(job, now) {
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		s.wg.Add(1)
		go func(j *scheduledJob) {
			defer s.wg.Done()
			s.executeScheduledJob(j)
		}(job)
	}
	return len(due)
}

// isJobDue checks if a scheduled job should run now
func (s *SchedulerService) isJobDue(job *scheduledJob, now time.Time) bool {
	if job.schedule == nil || job.running {
		return false
	}
	return !job.next.IsZero() && !now.Before(job.next)
}

// executeScheduledJob runs a single job with safety guards
func (s *SchedulerService) executeScheduledJob(job *scheduledJob) {
	if !s.acquireExecutionLock(job) {
		s.logger.Info("workflow already running, skipping", zap.String("workflow", job.config.ID))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in scheduled workflow",
				zap.String("workflow", job.config.ID),
				zap.Any("panic", r),
			)
			s.finish(job, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.maxRuntime)
	defer cancel()

	start := s.now()
	_, err := s.RunOnce(ctx, job.config)
	duration := s.now().Sub(start)

	if err != nil {
		s.logger.Error("scheduled workflow failed",
			zap.String("workflow", job.config.ID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		s.logger.Info("scheduled workflow completed",
			zap.String("workflow", job.config.ID),
			zap.Duration("duration", duration),
		)
	}
	s.finish(job, err)
}

// RunOnce deploys the template of cfg immediately
func (s *SchedulerService) RunOnce(ctx context.Context, cfg models.WorkflowConfig) (*models.DeployedDatabase, error) {
	return s.deployer.DeployTemplate(ctx, models.DeployRequest{
		TemplateID:        cfg.Template,
		Customizations:    cfg.Customizations,
		IncludeSampleData: true,
	})
}

// acquireExecutionLock marks the job running unless it already is
func (s *SchedulerService) acquireExecutionLock(job *scheduledJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.running {
		return false
	}
	job.running = true
	return true
}

// finish releases the lock, records the run and schedules the next one
func (s *SchedulerService) finish(job *scheduledJob, runErr error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	job.running = false
	job.config.LastRun = now.UTC().Format(isoMillis)
	job.config.LastError = ""
	if runErr != nil {
		job.config.LastError = runErr.Error()
	}
	s.scheduleNextRun(job, now)
}

// scheduleNextRun calculates the next run time; callers hold s.mu
func (s *SchedulerService) scheduleNextRun(job *scheduledJob, after time.Time) {
	if job.schedule == nil {
		return
	}
	job.next = job.schedule.Next(after.In(job.loc)).UTC()
	job.config.NextRun = job.next.Format(isoMillis)
}

// NextRun parses a cron expression and returns the next execution time after now
func (s *SchedulerService) NextRun(cronExpr, timezone string) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule.Next(s.now().In(s.location(timezone))).UTC(), nil
}

func (s *SchedulerService) location(timezone string) *time.Location {
	if timezone == "" || timezone == constants.ScheduleDefaultTimezone {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		s.logger.Warn("invalid timezone, falling back to UTC", zap.String("timezone", timezone))
		return time.UTC
	}
	return loc
}
