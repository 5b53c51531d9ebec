package mq

import (
	"time"

	"github.com/google/uuid"
)

// Queue names and message definitions

// immediate queue carrying reservation lifecycle events to the notification workflow
const (
	ReservationEventsQueue = "reservation.events"
)

// delay queue holding events whose handling failed
// messages dead-letter back into ReservationEventsQueue once the TTL expires
const (
	ReservationEventsRetryQueue      = "reservation.events.retry"
	ReservationEventsRetryExchange   = "reservation.events.exchange"
	ReservationEventsRetryRoutingKey = "reservation.event"
	ReservationEventsRetryDelay      = 30 * time.Second
	ReservationEventsMaxAttempts     = 5
)

type ReservationEventType string

const (
	ReservationConfirmed ReservationEventType = "reservation.confirmed"
	ReservationCancelled ReservationEventType = "reservation.cancelled"
	ReservationDeleted   ReservationEventType = "reservation.deleted"
)

type ReservationEvent struct {
	Type          ReservationEventType `json:"type"`
	ReservationID uuid.UUID            `json:"reservation_id"`
	UserID        uuid.UUID            `json:"user_id"`
	ShowtimeID    uuid.UUID            `json:"showtime_id"`
	SeatIDs       []uuid.UUID          `json:"seat_ids"`
	TotalPrice    float64              `json:"total_price"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Attempt       int                  `json:"attempt"`
}
