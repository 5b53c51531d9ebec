package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

type stubShowtimes struct {
	domain.ShowtimeService
	refreshed []uuid.UUID
	err       error
}

func (s *stubShowtimes) RefreshAvailability(_ context.Context, id uuid.UUID) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.refreshed = append(s.refreshed, id)
	return 42, nil
}

type stubRetrier struct {
	retried []mq.ReservationEvent
	err     error
}

func (r *stubRetrier) RetryReservationEvent(_ context.Context, event mq.ReservationEvent) error {
	if r.err != nil {
		return r.err
	}
	r.retried = append(r.retried, event)
	return nil
}

func encode(t *testing.T, event mq.ReservationEvent) []byte {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func TestReservationWorkflow_Process(t *testing.T) {
	event := mq.ReservationEvent{
		Type:          mq.ReservationConfirmed,
		ReservationID: uuid.New(),
		UserID:        uuid.New(),
		ShowtimeID:    uuid.New(),
		SeatIDs:       []uuid.UUID{uuid.New()},
		TotalPrice:    12.5,
		OccurredAt:    time.Now().UTC(),
	}
	lastAttempt := event
	lastAttempt.Attempt = mq.ReservationEventsMaxAttempts - 1

	tests := []struct {
		name        string
		body        []byte
		refreshErr  error
		retryErr    error
		want        outcome
		wantRetries int
	}{
		{name: "refreshes and acks", body: encode(t, event), want: outcomeAck},
		{name: "malformed body is dropped", body: []byte("{not json"), want: outcomeDrop},
		{name: "failure schedules retry", body: encode(t, event), refreshErr: errors.New("db down"), want: outcomeAck, wantRetries: 1},
		{name: "retry queue unavailable", body: encode(t, event), refreshErr: errors.New("db down"), retryErr: errors.New("broker down"), want: outcomeRequeue},
		{name: "gives up after max attempts", body: encode(t, lastAttempt), refreshErr: errors.New("db down"), want: outcomeAck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			showtimes := &stubShowtimes{err: tt.refreshErr}
			retrier := &stubRetrier{err: tt.retryErr}
			w := NewReservationWorkflow(showtimes, retrier, zap.NewNop())

			got := w.process(context.Background(), tt.body)
			assert.Equal(t, tt.want, got)
			assert.Len(t, retrier.retried, tt.wantRetries)
			if tt.want == outcomeAck && tt.refreshErr == nil {
				assert.Equal(t, []uuid.UUID{event.ShowtimeID}, showtimes.refreshed)
			}
		})
	}
}

func TestReservationWorkflow_Notifies(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := NewReservationWorkflow(&stubShowtimes{}, &stubRetrier{}, zap.New(core))

	event := mq.ReservationEvent{Type: mq.ReservationCancelled, ReservationID: uuid.New(), ShowtimeID: uuid.New()}
	require.Equal(t, outcomeAck, w.process(context.Background(), encode(t, event)))

	entries := logs.FilterMessage("reservation notification").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(mq.ReservationCancelled), fields["event"])
	assert.EqualValues(t, 42, fields["seats_left"])
}
