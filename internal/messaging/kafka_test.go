package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/pkg/models"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestPublisher_ModelBuilt(t *testing.T) {
	w := new(mockWriter)
	p := newPublisher(w, "events", testLogger(), nil)

	builtAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil).Once()

	p.ModelBuilt(models.ModelInfo{SnapshotID: "snap-1", Mode: "full", Books: 11127, Features: 30, BuiltAt: builtAt})
	w.AssertExpectations(t)

	require.Len(t, sent, 1)
	assert.Equal(t, "snap-1", string(sent[0].Key))

	var event ModelEvent
	require.NoError(t, json.Unmarshal(sent[0].Value, &event))
	assert.Equal(t, EventModelBuilt, event.Event)
	assert.Equal(t, "full", event.Mode)
	assert.Equal(t, 11127, event.Books)
	assert.Equal(t, 30, event.Features)
	assert.True(t, builtAt.Equal(event.BuiltAt))
	assert.NotEqual(t, [16]byte{}, [16]byte(event.EventID))

	headers := make(map[string]string)
	for _, h := range sent[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, EventModelBuilt, headers["event"])
	assert.Equal(t, event.EventID.String(), headers["event_id"])
}

func TestPublisher_Errors(t *testing.T) {
	w := new(mockWriter)
	p := newPublisher(w, "events", testLogger(), nil)

	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := p.Publish(context.Background(), ModelEvent{Event: EventModelBuilt, SnapshotID: "x"})
	assert.ErrorContains(t, err, "broker down")

	assert.NotPanics(t, func() {
		p.ModelBuilt(models.ModelInfo{SnapshotID: "x"})
	}, "build notifications swallow publish errors")
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, testLogger(), nil)
	assert.Equal(t, DefaultModelEventsTopic, p.topic)

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultModelEventsTopic, w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)

	w2 := new(mockWriter)
	w2.On("Close").Return(nil)
	assert.NoError(t, newPublisher(w2, "t", testLogger(), nil).Close())
}
