package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher_KeysByOwner(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisher(w)

	ev := Event{
		Type:        TypeTransactionCompleted,
		OwnerID:     "owner-1",
		Reference:   "wd_1",
		AmountMinor: -10000,
		OccurredAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("owner-1"), w.msgs[0].Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	p := NewKafkaPublisher(&recordingWriter{err: errors.New("broker down")})

	err := p.Publish(context.Background(), Event{OwnerID: "o"})
	assert.ErrorContains(t, err, "broker down")
}
