package services

import (
	"context"
	"log"
	"time"

	"taskflow/backend/internal/worker"

	"github.com/gofrs/uuid"
)

// Notifier pushes assignment-change notifications onto the background
// queue. A nil Notifier (no Redis configured) is a no-op, so handlers
// call it unconditionally.
type Notifier struct {
	worker *worker.Worker
}

func NewNotifier(w *worker.Worker) *Notifier {
	if w == nil {
		return nil
	}
	return &Notifier{worker: w}
}

// TaskAssigned notifies every affected user about the assignment
// change. Failures are logged, never surfaced: notification is best
// effort and must not fail the request.
func (n *Notifier) TaskAssigned(taskID uuid.UUID, userIDs []uuid.UUID) {
	if n == nil || len(userIDs) == 0 {
		return
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	job := &worker.Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      worker.JobTypeAssignmentNotification,
		MaxTries:  3,
		CreatedAt: time.Now(),
		Payload: map[string]interface{}{
			"task_id":  taskID.String(),
			"user_ids": ids,
		},
	}
	if err := n.worker.Enqueue(context.Background(), job); err != nil {
		log.Printf("failed to enqueue assignment notification for task %s: %v", taskID, err)
	}
}

// TaskDue queues a due-date reminder for a newly created task.
func (n *Notifier) TaskDue(taskID uuid.UUID, due time.Time) {
	if n == nil {
		return
	}

	job := &worker.Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      worker.JobTypeTaskReminder,
		MaxTries:  3,
		CreatedAt: time.Now(),
		Payload: map[string]interface{}{
			"task_id":  taskID.String(),
			"due_date": due.Format(time.RFC3339),
		},
	}
	if err := n.worker.Enqueue(context.Background(), job); err != nil {
		log.Printf("failed to enqueue due reminder for task %s: %v", taskID, err)
	}
}
