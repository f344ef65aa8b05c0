package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/pkg/monitoring"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
)

const (
	// DefaultQueueSize bounds the jobs waiting for the worker
	DefaultQueueSize = 100
	// DefaultSendTimeout bounds a single delivery attempt
	DefaultSendTimeout = 10 * time.Second
)

type job struct {
	to      string
	subject string
	body    string
}

// Notifier emails the admin about new membership requests from a single background worker.
// Enqueueing never blocks; jobs are dropped when the queue is full or the notifier is stopped.
type Notifier struct {
	sender      Sender
	adminEmail  string
	sendTimeout time.Duration

	queue    chan job
	done     chan struct{}
	mu       sync.RWMutex
	stopped  bool
	started  bool
	stopOnce sync.Once
}

// NewNotifier creates a notifier. An empty adminEmail disables it.
func NewNotifier(sender Sender, adminEmail string, queueSize int) *Notifier {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	if adminEmail == "" {
		slog.Info("Admin notifications disabled", "reason", "ADMIN_EMAIL not configured")
	}
	return &Notifier{
		sender:      sender,
		adminEmail:  adminEmail,
		sendTimeout: DefaultSendTimeout,
		queue:       make(chan job, queueSize),
		done:        make(chan struct{}),
	}
}

// NotifyNewRequest enqueues the admin email for a new request and returns immediately
func (n *Notifier) NotifyNewRequest(request models.MembershipRequest) {
	if n.adminEmail == "" {
		return
	}
	n.enqueue(job{
		to:      n.adminEmail,
		subject: fmt.Sprintf("New membership request from %s", request.Email),
		body:    requestBody(request),
	})
}

func (n *Notifier) enqueue(j job) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.stopped {
		slog.Warn("Notifier stopped, dropping notification", "subject", j.subject)
		return
	}
	select {
	case n.queue <- j:
	default:
		slog.Warn("Notification queue full, dropping notification", "subject", j.subject, "capacity", cap(n.queue))
		monitoring.RecordBusinessEvent(context.Background(), "notification_enqueued", false)
	}
}

// Start launches the worker, which runs until ctx is cancelled or Stop has drained the queue
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started {
		return
	}
	n.started = true
	go n.run(ctx)
}

func (n *Notifier) run(ctx context.Context) {
	defer close(n.done)
	slog.Info("Notification worker started", "queueSize", cap(n.queue))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Notification worker stopped", "pending", len(n.queue))
			return
		case j, ok := <-n.queue:
			if !ok {
				slog.Info("Notification worker drained")
				return
			}
			n.deliver(ctx, j)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, j job) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.sendTimeout)
	defer cancel()

	if err := n.sender.Send(sendCtx, j.to, j.subject, j.body); err != nil {
		slog.Error("Failed to send notification", "to", j.to, "subject", j.subject, "error", err)
		monitoring.RecordBusinessEvent(ctx, "notification_sent", false)
		return
	}
	monitoring.RecordBusinessEvent(ctx, "notification_sent", true)
}

// Stop rejects new jobs and waits until the worker has delivered the queued ones or ctx expires
func (n *Notifier) Stop(ctx context.Context) error {
	n.stopOnce.Do(func() {
		n.mu.Lock()
		n.stopped = true
		close(n.queue)
		n.mu.Unlock()
	})

	n.mu.RLock()
	started := n.started
	n.mu.RUnlock()
	if !started {
		return nil
	}

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func requestBody(request models.MembershipRequest) string {
	lines := []string{
		"A new membership request was submitted.",
		"",
		"ID: " + request.ID,
		"Email: " + request.Email,
	}
	optional := []struct {
		label string
		value *string
	}{
		{"Phone", request.Phone},
		{"Kakao ID", request.KakaoID},
		{"Depositor", request.DepositorName},
		{"Plan", request.PlanType},
		{"Referral", request.ReferralEmail},
	}
	for _, field := range optional {
		if field.value != nil {
			lines = append(lines, field.label+": "+*field.value)
		}
	}
	lines = append(lines, fmt.Sprintf("Months: %d", request.MonthsOrDefault()))
	return strings.Join(lines, "\n")
}
