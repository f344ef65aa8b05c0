package notification

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	err      error
	block    chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, to+"|"+subject)
	return f.err
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func newRequest(email string) models.MembershipRequest {
	phone := "010-1234"
	return models.MembershipRequest{ID: "req_1", Email: email, Phone: &phone, Status: models.StatusPending}
}

func TestNotifier_DeliversQueuedJobs(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifier(sender, "admin@example.com", 10)

	notifier.Start(context.Background())

	notifier.NotifyNewRequest(newRequest("a@example.com"))
	notifier.NotifyNewRequest(newRequest("b@example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, notifier.Stop(ctx))

	assert.Equal(t, []string{
		"admin@example.com|New membership request from a@example.com",
		"admin@example.com|New membership request from b@example.com",
	}, sender.sent())
}

func TestNotifier_SendFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	notifier := NewNotifier(sender, "admin@example.com", 10)
	notifier.Start(context.Background())

	notifier.NotifyNewRequest(newRequest("a@example.com"))
	notifier.NotifyNewRequest(newRequest("b@example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, notifier.Stop(ctx))
	assert.Len(t, sender.sent(), 2)
}

func TestNotifier_FullQueueDoesNotBlock(t *testing.T) {
	sender := &fakeSender{}
	// No worker running, so the queue fills after one job
	notifier := NewNotifier(sender, "admin@example.com", 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			notifier.NotifyNewRequest(newRequest("a@example.com"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyNewRequest blocked on a full queue")
	}
	assert.Equal(t, 1, len(notifier.queue))
}

func TestNotifier_DisabledWithoutAdminEmail(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifier(sender, "", 1)

	notifier.NotifyNewRequest(newRequest("a@example.com"))
	assert.Equal(t, 0, len(notifier.queue))
}

func TestNotifier_StopTwiceAndDropAfterStop(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifier(sender, "admin@example.com", 2)

	require.NoError(t, notifier.Stop(context.Background()))
	require.NoError(t, notifier.Stop(context.Background()))

	notifier.NotifyNewRequest(newRequest("late@example.com"))
	assert.Empty(t, sender.sent())
}

func TestNotifier_StopHonorsDeadline(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	defer close(sender.block)
	notifier := NewNotifier(sender, "admin@example.com", 2)
	notifier.Start(context.Background())

	notifier.NotifyNewRequest(newRequest("slow@example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, notifier.Stop(ctx), context.DeadlineExceeded)
}

func TestRequestBody(t *testing.T) {
	request := newRequest("a@example.com")
	depositor := "Kim"
	request.DepositorName = &depositor

	body := requestBody(request)
	assert.Contains(t, body, "Email: a@example.com")
	assert.Contains(t, body, "Phone: 010-1234")
	assert.Contains(t, body, "Depositor: Kim")
	assert.Contains(t, body, "Months: 1")
	assert.NotContains(t, body, "Plan:")
}

func TestSMTPSender_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string

	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "user", Password: "pass", From: "noreply@example.com"})
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), "admin@example.com", "Hello\r\nBcc: evil@example.com", "line1\nline2"))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"admin@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hello  Bcc: evil@example.com\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "line1\r\nline2"))

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, sender.Send(ctx, "admin@example.com", "s", "b"), context.Canceled)
	})

	t.Run("Failure", func(t *testing.T) {
		sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
		err := sender.Send(context.Background(), "admin@example.com", "s", "b")
		assert.ErrorContains(t, err, "refused")
	})
}

func TestSMTPConfig_Configured(t *testing.T) {
	assert.False(t, SMTPConfig{}.Configured())
	assert.True(t, SMTPConfig{Host: "smtp.example.com", From: "a@example.com"}.Configured())
}
