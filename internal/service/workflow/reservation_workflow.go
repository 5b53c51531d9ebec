package workflow

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/service/domain"
)

// EventRetrier parks an event on the delay queue for another attempt.
type EventRetrier interface {
	RetryReservationEvent(ctx context.Context, event mq.ReservationEvent) error
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeDrop
	outcomeRequeue
)

// ReservationWorkflow consumes reservation events: it refreshes the cached seat
// counter of the showtime and notifies the customer.
type ReservationWorkflow struct {
	showtimeService domain.ShowtimeService
	retrier         EventRetrier
	logger          *zap.Logger
	handleTimeout   time.Duration
}

func NewReservationWorkflow(showtimeService domain.ShowtimeService, retrier EventRetrier, logger *zap.Logger) *ReservationWorkflow {
	return &ReservationWorkflow{
		showtimeService: showtimeService,
		retrier:         retrier,
		logger:          logger,
		handleTimeout:   10 * time.Second,
	}
}

func (w *ReservationWorkflow) Start(mqConn *amqp.Connection) error {
	return w.ConsumeReservationEvents(mqConn)
}

func (w *ReservationWorkflow) ConsumeReservationEvents(conn *amqp.Connection) error {
	ch, err := mq.NewChannel(conn)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(mq.ReservationEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			w.handleDelivery(msg)
		}
		w.logger.Info("reservation event consumer stopped")
	}()

	return nil
}

func (w *ReservationWorkflow) handleDelivery(msg amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), w.handleTimeout)
	defer cancel()

	var err error
	switch w.process(ctx, msg.Body) {
	case outcomeAck:
		err = msg.Ack(false)
	case outcomeDrop:
		err = msg.Nack(false, false)
	case outcomeRequeue:
		err = msg.Nack(false, true)
	}
	if err != nil {
		w.logger.Error("failed to settle reservation event", zap.Error(err))
	}
}

func (w *ReservationWorkflow) process(ctx context.Context, body []byte) outcome {
	var event mq.ReservationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.logger.Warn("dropping malformed reservation event", zap.Error(err))
		return outcomeDrop
	}

	log := w.logger.With(
		zap.String("event", string(event.Type)),
		zap.String("reservation_id", event.ReservationID.String()),
		zap.Int("attempt", event.Attempt),
	)

	available, err := w.showtimeService.RefreshAvailability(ctx, event.ShowtimeID)
	if err != nil {
		if event.Attempt+1 >= mq.ReservationEventsMaxAttempts {
			log.Error("giving up on reservation event", zap.Error(err))
			return outcomeAck
		}
		if rerr := w.retrier.RetryReservationEvent(ctx, event); rerr != nil {
			log.Warn("failed to schedule retry, requeueing", zap.Error(rerr))
			return outcomeRequeue
		}
		log.Warn("reservation event failed, retry scheduled", zap.Error(err))
		return outcomeAck
	}

	w.notify(log, event, available)
	return outcomeAck
}

// notify stands in for the customer notification channel.
func (w *ReservationWorkflow) notify(log *zap.Logger, event mq.ReservationEvent, available int) {
	log.Info("reservation notification",
		zap.String("user_id", event.UserID.String()),
		zap.String("showtime_id", event.ShowtimeID.String()),
		zap.Int("seats", len(event.SeatIDs)),
		zap.Float64("total_price", event.TotalPrice),
		zap.Int("seats_left", available),
	)
}
