// Package worker runs background jobs off a Redis list queue. The API
// surface enqueues assignment notifications; worker goroutines pop,
// dispatch to the registered handler and re-queue failures until the
// job's retry budget runs out.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	JobTypeAssignmentNotification JobType = "assignment_notification"
	JobTypeTaskReminder           JobType = "task_reminder"
)

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type Config struct {
	RedisClient  *redis.Client
	Concurrency  int
	PollInterval time.Duration
	Queue        string
}

type Worker struct {
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queue        string
	concurrency  int
	pollInterval time.Duration
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewWorker(config Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &Worker{
		client:       config.RedisClient,
		handlers:     make(map[JobType]JobHandler),
		queue:        config.Queue,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Enqueue pushes the job onto the queue for any worker to pick up.
func (w *Worker) Enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := w.client.LPush(ctx, w.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (w *Worker) Start() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) run(id int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.drain(id)
		}
	}
}

// drain processes queued jobs until the queue is empty.
func (w *Worker) drain(id int) {
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		job, err := w.pop()
		if err != nil {
			if err != redis.Nil {
				log.Printf("worker %d: failed to pop job: %v", id, err)
			}
			return
		}
		w.process(id, job)
	}
}

func (w *Worker) pop() (*Job, error) {
	ctx, cancel := context.WithTimeout(w.ctx, 3*time.Second)
	defer cancel()

	data, err := w.client.RPop(ctx, w.queue).Bytes()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (w *Worker) process(id int, job *Job) {
	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	if !ok {
		log.Printf("worker %d: no handler for job type %q, dropping job %s", id, job.Type, job.ID)
		return
	}

	job.Attempts++
	if err := handler(w.ctx, job); err != nil {
		log.Printf("worker %d: job %s failed (attempt %d/%d): %v", id, job.ID, job.Attempts, job.MaxTries, err)
		if job.Attempts < job.MaxTries {
			if enqErr := w.Enqueue(w.ctx, job); enqErr != nil {
				log.Printf("worker %d: failed to re-enqueue job %s: %v", id, job.ID, enqErr)
			}
		}
	}
}
