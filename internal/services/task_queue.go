package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/samvad/campus/backend/internal/config"
	"github.com/samvad/campus/backend/pkg/logger"
)

const (
	TaskTypeNotify = "notify:whatsapp"
)

// Notification task kinds.
const (
	NotifyDirect        = "direct"         // one recipient
	NotifyClubBroadcast = "club_broadcast" // all consenting members of a club
)

// NotificationTask is a queued WhatsApp delivery. For direct sends To is the
// recipient's number; for broadcasts ClubID selects the recipients.
type NotificationTask struct {
	Kind   string `json:"kind"`
	To     string `json:"to,omitempty"`
	ClubID uint   `json:"club_id,omitempty"`
	Body   string `json:"body"`
}

// TaskQueue decouples notification delivery from request handling. The
// enqueue path must be cheap and must never surface an error to the caller's
// mutation.
type TaskQueue interface {
	Enqueue(task *NotificationTask) error
	IsAsync() bool
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue. With Redis enabled the
// queue is backed by asynq; otherwise tasks run in a local goroutine.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warn().Err(err).Msg("redis unavailable, notification queue falling back to sync mode")
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Info().Str("addr", cfg.Redis.Addr).Msg("async notification queue initialized")
				globalTaskQueue = queue
			}
		} else {
			logger.Info().Msg("sync notification queue initialized (redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance.
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue on asynq (Redis-backed).
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection up front so init can fall back to sync mode.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotify, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("kind", task.Kind).Msg("notification enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error { return q.client.Close() }

// SyncQueue implements TaskQueue without Redis: each task runs in its own
// goroutine so the caller never blocks on delivery.
type SyncQueue struct {
	processor func(context.Context, *NotificationTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that handles tasks.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *NotificationTask) error {
	if q.processor == nil {
		logger.Warn().Str("kind", task.Kind).Msg("no notification processor set, dropping task")
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), task); err != nil {
			logger.Warn().Err(err).Str("kind", task.Kind).Msg("notification delivery failed")
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error { return nil }
