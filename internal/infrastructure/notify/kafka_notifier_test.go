package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/pkg/logger"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishTransition(t *testing.T) {
	writer := &fakeWriter{}
	notifier := NewKafkaNotifierWithWriter(writer, logger.NewNoopLogger())

	old := models.GradeAmber
	event := models.GradeTransitionEvent{
		PropertyID:       "prop-1",
		OldGrade:         &old,
		NewGrade:         models.GradeRed,
		TriggeredAlert:   true,
		TriggeredReprice: true,
		OccurredAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, notifier.PublishTransition(context.Background(), event))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, []byte("prop-1"), msg.Key, "messages are keyed by property for per-property ordering")

	var decoded models.GradeTransitionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "prop-1", decoded.PropertyID)
	require.NotNil(t, decoded.OldGrade)
	assert.Equal(t, models.GradeAmber, *decoded.OldGrade)
	assert.Equal(t, models.GradeRed, decoded.NewGrade)
	assert.True(t, decoded.TriggeredReprice)
}

func TestPublishTransition_WriteErrorPropagates(t *testing.T) {
	writer := &fakeWriter{err: fmt.Errorf("broker unavailable")}
	notifier := NewKafkaNotifierWithWriter(writer, logger.NewNoopLogger())

	err := notifier.PublishTransition(context.Background(), models.GradeTransitionEvent{PropertyID: "prop-1"})
	require.Error(t, err)
}

func TestClose_ClosesWriter(t *testing.T) {
	writer := &fakeWriter{}
	notifier := NewKafkaNotifierWithWriter(writer, logger.NewNoopLogger())

	require.NoError(t, notifier.Close())
	assert.True(t, writer.closed)
}
