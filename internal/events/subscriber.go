package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event subjects
const (
	SubjectOrderCreated = "pos.order.created"
	SubjectOrderUpdated = "pos.order.updated"
	SubjectOrderDeleted = "pos.order.deleted"

	SubjectSnapshotRefreshed = "analytics.snapshot.refreshed"
)

// OrderSubjects lists the order store subjects the service listens to
var OrderSubjects = []string{SubjectOrderCreated, SubjectOrderUpdated, SubjectOrderDeleted}

// OrderChangedEvent is published by the POS order store when an order changes
type OrderChangedEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status,omitempty"`
	Action    string    `json:"action"` // created, updated or deleted
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotRefreshedEvent announces a new analytics snapshot
type SnapshotRefreshedEvent struct {
	SnapshotID  uuid.UUID `json:"snapshot_id"`
	Source      string    `json:"source"`
	OrderCount  int       `json:"order_count"`
	Reason      string    `json:"reason"`
	BusinessDay string    `json:"business_day"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// EventHandler defines the interface for handling events
type EventHandler interface {
	HandleOrderChanged(event *OrderChangedEvent) error
}

// Subscriber handles NATS event subscriptions
type Subscriber struct {
	nc      *nats.Conn
	logger  *zap.Logger
	handler EventHandler
	subs    []*nats.Subscription
}

// NewSubscriber creates a new NATS subscriber
func NewSubscriber(nc *nats.Conn, handler EventHandler, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		nc:      nc,
		logger:  logger,
		handler: handler,
		subs:    make([]*nats.Subscription, 0),
	}
}

// Start subscribes to all order subjects
func (s *Subscriber) Start() error {
	for _, subject := range OrderSubjects {
		sub, err := s.nc.Subscribe(subject, s.handleOrderChanged)
		if err != nil {
			s.Stop()
			return err
		}
		s.subs = append(s.subs, sub)
		s.logger.Info("Subscribed to event", zap.String("subject", subject))
	}

	s.logger.Info("NATS subscriber started with all subscriptions")
	return nil
}

// Stop unsubscribes from all events
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = s.subs[:0]
	s.logger.Info("NATS subscriber stopped")
}

// actionForSubject maps pos.order.<action> to its action
func actionForSubject(subject string) string {
	switch subject {
	case SubjectOrderCreated:
		return "created"
	case SubjectOrderUpdated:
		return "updated"
	case SubjectOrderDeleted:
		return "deleted"
	default:
		return ""
	}
}

// handleOrderChanged processes order change events
func (s *Subscriber) handleOrderChanged(msg *nats.Msg) {
	var event OrderChangedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("Failed to unmarshal order changed event",
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}
	if action := actionForSubject(msg.Subject); action != "" {
		event.Action = action
	}

	s.logger.Info("Received order changed event",
		zap.String("order_id", event.OrderID),
		zap.String("action", event.Action),
	)

	if err := s.handler.HandleOrderChanged(&event); err != nil {
		s.logger.Error("Failed to handle order changed event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

// Publisher handles publishing events to NATS
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// PublishSnapshotRefreshed announces a refreshed snapshot. A publisher without a
// connection drops the event.
func (p *Publisher) PublishSnapshotRefreshed(event *SnapshotRefreshedEvent) error {
	if p == nil || p.nc == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectSnapshotRefreshed, data)
}
