package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"sublet/rentals/internal/config"
	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/services"
)

// Task types.
const (
	TypeRequestExpire = "request:expire"
	TypeRequestNotify = "request:notify"
)

// Notification events carried by TypeRequestNotify.
const (
	EventRequestCreated  = "request_created"
	EventRequestAccepted = "request_accepted"
	EventRequestRejected = "request_rejected"
	EventRequestExpired  = "request_expired"
)

const notifyMaxRetry = 5

// IAsynqClient is the subset of *asynq.Client used to enqueue tasks.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RedisOpt builds the asynq connection options from the configuration.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

// NotifyPayload tells a user that one of their requests changed.
type NotifyPayload struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Event     string `json:"event"`
}

func NewNotifyTask(p NotifyPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRequestNotify, payload, asynq.MaxRetry(notifyMaxRetry)), nil
}

// EnqueueNotify enqueues a notification for userID about req.
func EnqueueNotify(ctx context.Context, client IAsynqClient, req *models.Request, userID, event string) error {
	task, err := NewNotifyTask(NotifyPayload{RequestID: req.ID, UserID: userID, Event: event})
	if err != nil {
		return fmt.Errorf("failed to build notify task: %w", err)
	}
	if _, err := client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue notify task for request %s: %w", req.ID, err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	cfg        *config.Config
	requests   services.IRequestService
	inbox      INotificationInbox
	taskClient IAsynqClient
	log        *zap.SugaredLogger
	now        func() time.Time
}

func NewTaskProcessor(cfg *config.Config, requests services.IRequestService, inbox INotificationInbox, taskClient IAsynqClient, l *zap.SugaredLogger) *TaskProcessor {
	return &TaskProcessor{
		cfg:        cfg,
		requests:   requests,
		inbox:      inbox,
		taskClient: taskClient,
		log:        logger.OrNop(l),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewServeMux registers every task handler.
func NewServeMux(p *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRequestExpire, p.HandleRequestExpireTask)
	mux.HandleFunc(TypeRequestNotify, p.HandleRequestNotifyTask)
	return mux
}

// SetupServer configures an asynq server. Call Run (or Start) with NewServeMux.
func SetupServer(cfg *config.Config, l *zap.SugaredLogger) *asynq.Server {
	log := logger.OrNop(l)
	return asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Errorw("Task failed", "type", task.Type(), "payload", string(task.Payload()), "error", err)
			}),
		},
	)
}

// SetupScheduler registers the periodic expiry sweep.
func SetupScheduler(cfg *config.Config, l *zap.SugaredLogger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{Location: time.UTC})
	entryID, err := scheduler.Register(cfg.ExpirySweepInterval, asynq.NewTask(TypeRequestExpire, nil), asynq.Queue("low"))
	if err != nil {
		return nil, fmt.Errorf("failed to register expiry sweep %q: %w", cfg.ExpirySweepInterval, err)
	}
	logger.OrNop(l).Infow("Registered expiry sweep", "spec", cfg.ExpirySweepInterval, "entry_id", entryID)
	return scheduler, nil
}

// --- Task Handlers ---

// HandleRequestExpireTask expires PENDING requests older than the configured TTL
// and notifies each renter.
func (p *TaskProcessor) HandleRequestExpireTask(ctx context.Context, t *asynq.Task) error {
	cutoff := p.now().Add(-p.cfg.RequestTTL)
	expired, err := p.requests.ExpirePendingBefore(ctx, cutoff)

	// A partial sweep still returns what it moved; a retry will not select those again.
	for i := range expired {
		if nErr := EnqueueNotify(ctx, p.taskClient, &expired[i], expired[i].RenterID, EventRequestExpired); nErr != nil {
			p.log.Warnw("Failed to enqueue expiry notification", "request_id", expired[i].ID, "error", nErr)
		}
	}
	if err != nil {
		p.log.Errorw("Expiry sweep failed", "cutoff", cutoff, "expired", len(expired), "error", err)
		return err
	}
	p.log.Infow("Expiry sweep finished", "cutoff", cutoff, "expired", len(expired))
	return nil
}

// HandleRequestNotifyTask appends the notification to the user's inbox.
func (p *TaskProcessor) HandleRequestNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload NotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == "" || payload.RequestID == "" || payload.Event == "" {
		return fmt.Errorf("incomplete notify payload: %w", asynq.SkipRetry)
	}

	n := Notification{RequestID: payload.RequestID, Event: payload.Event, CreatedAt: p.now()}
	if err := p.inbox.Push(ctx, payload.UserID, n); err != nil {
		p.log.Warnw("Failed to push notification", "user_id", payload.UserID, "request_id", payload.RequestID, "error", err)
		return err
	}
	return nil
}
