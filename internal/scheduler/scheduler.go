package scheduler

import (
	"log/slog"
	"time"

	"merlin/internal/config"
	"merlin/internal/email"
	"merlin/internal/repository"
	"merlin/internal/service"
)

// Scheduler handles periodic tasks
type Scheduler struct {
	cycleService      *service.CycleService
	assignmentService *service.AssignmentService
	assignmentRepo    *repository.AssignmentRepository
	emailService      *email.Service
	config            *config.SchedulerConfig
	stopChan          chan bool
}

// NewScheduler creates a new scheduler
func NewScheduler(
	cycleService *service.CycleService,
	assignmentService *service.AssignmentService,
	assignmentRepo *repository.AssignmentRepository,
	emailService *email.Service,
	cfg *config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		cycleService:      cycleService,
		assignmentService: assignmentService,
		assignmentRepo:    assignmentRepo,
		emailService:      emailService,
		config:            cfg,
		stopChan:          make(chan bool),
	}
}

// Start starts all scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler",
		"materialization_enabled", s.config.EnableMaterialization,
		"deadline_reminders_enabled", s.config.EnableDeadlineReminders)

	if s.config.EnableMaterialization {
		go s.scheduleIntervalTask(s.config.MaterializeInterval, "materialize_default_forms", s.materializeActiveCycles)
	}

	if s.config.EnableDeadlineReminders {
		go s.scheduleIntervalTask(s.config.ReminderInterval, "deadline_reminders", s.sendDeadlineReminders)
	}

	slog.Info("Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	close(s.stopChan)
}

// scheduleIntervalTask runs a task at regular intervals
func (s *Scheduler) scheduleIntervalTask(interval time.Duration, taskName string, task func()) {
	slog.Info("Starting interval task", "task", taskName, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	slog.Info("Running interval task", "task", taskName)
	task()

	for {
		select {
		case <-ticker.C:
			slog.Info("Running interval task", "task", taskName)
			task()
		case <-s.stopChan:
			return
		}
	}
}

// materializeActiveCycles materializes the default forms of every
// active cycle. Materialization is idempotent, so re-running against
// an unchanged organization is a no-op.
func (s *Scheduler) materializeActiveCycles() {
	slog.Info("Materializing default forms of active cycles")

	cycles, err := s.cycleService.ActiveCycles(time.Now())
	if err != nil {
		slog.Error("Failed to list active cycles", "error", err)
		return
	}

	for _, cycle := range cycles {
		results, err := s.assignmentService.MaterializeDefaultForms(cycle.ID)
		if err != nil {
			slog.Error("Failed to materialize default forms",
				"cycle_id", cycle.ID,
				"cycle_name", cycle.Name,
				"error", err,
			)
			continue
		}

		created := 0
		for _, result := range results {
			created += len(result.Affected)
		}
		slog.Info("Cycle materialization completed",
			"cycle_id", cycle.ID,
			"cycle_name", cycle.Name,
			"forms", len(results),
			"assignments", created,
		)
	}
}

// sendDeadlineReminders emails respondents whose incomplete
// assignments are due within the configured lead time
func (s *Scheduler) sendDeadlineReminders() {
	slog.Info("Sending deadline reminders")

	now := time.Now()
	pending, err := s.assignmentRepo.IncompleteDueBetween(now, now.Add(s.config.ReminderLeadTime))
	if err != nil {
		slog.Error("Failed to query pending reminders", "error", err)
		return
	}

	remindersSent := 0
	for _, p := range pending {
		err := s.emailService.SendDeadlineReminder(
			p.RespondentEmail,
			p.RespondentName,
			p.FormName,
			p.Assignment.Deadline,
		)
		if err != nil {
			slog.Error("Failed to send deadline reminder",
				"assignment_id", p.Assignment.ID,
				"user_email", p.RespondentEmail,
				"error", err,
			)
			continue
		}

		remindersSent++
		slog.Info("Deadline reminder sent",
			"assignment_id", p.Assignment.ID,
			"user_email", p.RespondentEmail,
			"deadline", p.Assignment.Deadline.Format("2006-01-02"),
		)
	}

	slog.Info("Deadline reminders completed", "reminders_sent", remindersSent)
}
