package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/registrar-api/pkg/jobs"
)

const jobTypeSlotCancellation = "slot_cancellation"

// CancellationNotice tells a student their booked office hour was cancelled.
type CancellationNotice struct {
	SlotID    string    `json:"slot_id"`
	StaffID   string    `json:"staff_id"`
	StudentID string    `json:"student_id"`
	SlotStart time.Time `json:"slot_start"`
}

// NotificationConfig sizes the dispatch queue.
type NotificationConfig struct {
	Concurrency int
	MaxRetries  int
}

// NotificationService dispatches cancellation notices on a background worker
// queue. Delivery is log-only; a mail or push integration would replace the
// handler body.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService builds the dispatcher. Call Start before enqueuing.
func NewNotificationService(cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Concurrency,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyCancellation enqueues a cancellation notice for delivery.
func (s *NotificationService) NotifyCancellation(notice CancellationNotice) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeSlotCancellation,
		Payload: notice,
	})
}

func (s *NotificationService) handle(_ context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(CancellationNotice)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	s.logger.Info("office hour cancellation notice",
		zap.String("student_id", notice.StudentID),
		zap.String("staff_id", notice.StaffID),
		zap.String("slot_id", notice.SlotID),
		zap.Time("slot_start", notice.SlotStart))
	return nil
}
