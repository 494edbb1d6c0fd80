package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sukesh_education/internal/mail"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMailer is a mock implementation of mail.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email mail.Email) error {
	return m.Called(email).Error(0)
}

func resetBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(&mail.PasswordResetMessage{
		Type:      mail.TypePasswordReset,
		UserID:    7,
		Email:     "test@example.com",
		ResetURL:  "http://localhost:8087/auth/reset-password?token=abc",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return body
}

func TestHandleMessage_PasswordReset(t *testing.T) {
	mailer := new(MockMailer)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	w := NewMailWorker(mailer, "Sukesh Education", metrics)

	mailer.On("Send", mock.MatchedBy(func(e mail.Email) bool {
		return e.To == "test@example.com" && e.Subject == "Sukesh Education password reset"
	})).Return(nil)

	require.NoError(t, w.handleMessage(context.Background(), resetBody(t), 1))
	mailer.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MailDeliveriesTotal.WithLabelValues(mail.TypePasswordReset, "success")))
}

func TestHandleMessage_MailerFailure(t *testing.T) {
	mailer := new(MockMailer)
	w := NewMailWorker(mailer, "Sukesh Education", observability.NewMetrics(prometheus.NewRegistry()))
	mailer.On("Send", mock.Anything).Return(errors.New("smtp timeout"))

	err := w.handleMessage(context.Background(), resetBody(t), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidPayload))
}

func TestHandleMessage_InvalidPayloads(t *testing.T) {
	w := NewMailWorker(new(MockMailer), "Sukesh Education", observability.NewMetrics(prometheus.NewRegistry()))

	for name, body := range map[string]string{
		"not json":      "{",
		"unknown type":  `{"type":"newsletter"}`,
		"missing email": `{"type":"password_reset","reset_url":"http://x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			err := w.handleMessage(context.Background(), []byte(body), 1)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestDecide(t *testing.T) {
	transient := errors.New("smtp timeout")

	assert.Equal(t, actionAck, decide(nil, 0))
	assert.Equal(t, actionRetry, decide(transient, 0))
	assert.Equal(t, actionRetry, decide(transient, queue.MaxRetries-1))
	assert.Equal(t, actionDrop, decide(transient, queue.MaxRetries))
	assert.Equal(t, actionDrop, decide(ErrInvalidPayload, 0))
}

func TestRetryCountOf(t *testing.T) {
	assert.Equal(t, int32(0), retryCountOf(nil))
	assert.Equal(t, int32(2), retryCountOf(amqp.Table{queue.RetryHeader: int32(2)}))
	assert.Equal(t, int32(3), retryCountOf(amqp.Table{queue.RetryHeader: int64(3)}))
	assert.Equal(t, int32(0), retryCountOf(amqp.Table{queue.RetryHeader: "x"}))
}
