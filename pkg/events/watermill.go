// Package events is the item event bus: Watermill SQL pub/sub over
// PostgreSQL, with a transactional outbox for repository writes.
//
// A subscription with a ConsumerGroup hands each message to one instance of
// the group; without one every subscriber sees every message. Handlers must
// be idempotent: a failing handler is retried per the bus RetryPolicy and
// the message is Nacked once the attempts run out.
//
// Messages carry the W3C trace context of the publishing request in their
// metadata, so handler logs join the request's trace.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/itemsapi/pkg/logger"
)

const (
	// OutboxTopic is the queue transactional publishes land in before the
	// forwarder moves them to their real topic.
	OutboxTopic = "items_outbox"

	forwarderGroup  = "items-outbox-forwarder"
	shutdownTimeout = 30 * time.Second
	errBuffer       = 100
)

// RetryPolicy controls redelivery of a failing handler within one
// subscription: Attempts calls in total, doubling the delay from BaseDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetry is used when Options.Retry is zero.
var DefaultRetry = RetryPolicy{Attempts: 3, BaseDelay: time.Second}

// Options configures an EventBus.
type Options struct {
	// ConsumerGroup load-balances subscriptions across instances. Empty means broadcast.
	ConsumerGroup string
	// Forwarder routes publishes through OutboxTopic; StartForwarder drains it.
	Forwarder bool
	Retry     RetryPolicy
}

// EventBus owns the *sql.DB it is built with and closes it on Close.
type EventBus struct {
	db         *sql.DB
	log        logger.Logger
	wlog       watermill.LoggerAdapter
	publisher  message.Publisher
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder
	outbox     bool
	retry      RetryPolicy
	wg         sync.WaitGroup
}

func publisherConfig(autoInit bool) watermillsql.PublisherConfig {
	return watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: autoInit,
	}
}

func subscriberConfig(group string) watermillsql.SubscriberConfig {
	return watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}
}

func (q *EventBus) viaOutbox(pub message.Publisher) message.Publisher {
	if !q.outbox {
		return pub
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: OutboxTopic})
}

// New builds an EventBus on db. Watermill tables are created on first use.
func New(db *sql.DB, opts Options, log logger.Logger) (*EventBus, error) {
	q := &EventBus{
		db:     db,
		log:    log,
		wlog:   &slogAdapter{log: log},
		outbox: opts.Forwarder,
		retry:  opts.Retry,
	}
	if q.retry.Attempts < 1 {
		q.retry = DefaultRetry
	}

	pub, err := watermillsql.NewPublisher(db, publisherConfig(true), q.wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	sub, err := watermillsql.NewSubscriber(db, subscriberConfig(opts.ConsumerGroup), q.wlog)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("events: new subscriber: %w", err), pub.Close())
	}

	q.publisher = q.viaOutbox(pub)
	q.subscriber = sub
	return q, nil
}

// EnsureTopics creates the tables backing topics so transactional
// publishers, which never initialize schema, can write to them.
func (q *EventBus) EnsureTopics(topics ...string) error {
	if q.outbox {
		topics = append(topics, OutboxTopic)
	}
	for _, topic := range topics {
		if err := q.subscriber.SubscribeInitialize(topic); err != nil {
			return fmt.Errorf("events: initialize %s: %w", topic, err)
		}
	}
	return nil
}

// StartForwarder runs the daemon that moves outbox messages to their
// target topics. It returns once the daemon is running.
func (q *EventBus) StartForwarder(ctx context.Context) error {
	switch {
	case !q.outbox:
		return errors.New("events: forwarder not enabled on this bus")
	case q.fwd != nil:
		return errors.New("events: forwarder already started")
	}

	outboxSub, err := watermillsql.NewSubscriber(q.db, subscriberConfig(forwarderGroup), q.wlog)
	if err != nil {
		return fmt.Errorf("events: outbox subscriber: %w", err)
	}
	targetPub, err := watermillsql.NewPublisher(q.db, publisherConfig(true), q.wlog)
	if err != nil {
		return errors.Join(fmt.Errorf("events: outbox target publisher: %w", err), outboxSub.Close())
	}
	fwd, err := forwarder.NewForwarder(outboxSub, targetPub, q.wlog, forwarder.Config{ForwarderTopic: OutboxTopic})
	if err != nil {
		return errors.Join(fmt.Errorf("events: create forwarder: %w", err), targetPub.Close(), outboxSub.Close())
	}
	q.fwd = fwd

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.log.InfoContext(ctx, "events: forwarder started", "outbox", OutboxTopic)
		if err := fwd.Run(ctx); err != nil {
			q.log.ErrorContext(ctx, "events: forwarder stopped", "error", err)
			return
		}
		q.log.InfoContext(ctx, "events: forwarder stopped")
	}()

	select {
	case <-fwd.Running():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// NewTxPublisher returns a Publisher whose writes join tx, so a row change
// and its event commit or roll back together. Topic tables must already
// exist (see EnsureTopics).
func (q *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(tx, publisherConfig(false), q.wlog)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return q.viaOutbox(pub), nil
}

// NewMessage encodes payload as JSON and stamps the trace context of ctx
// into the message metadata.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: encode payload: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), data)
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
	return msg, nil
}

// messageContext returns parent carrying the trace stamped into msg.
func messageContext(parent context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(parent, propagation.MapCarrier(msg.Metadata))
}

// Decode unmarshals a JSON message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("events: decode message %s: %w", msg.UUID, err)
	}
	return v, nil
}

// Publish encodes payload and publishes it to topic outside any transaction.
func (q *EventBus) Publish(ctx context.Context, topic string, payload any) error {
	msg, err := NewMessage(ctx, payload)
	if err != nil {
		return err
	}
	if err := q.publisher.Publish(topic, msg); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe processes messages from topic on a background goroutine. A nil
// handler result Acks the message. Errors are retried per the bus policy;
// after the last attempt the message is Nacked and the error is sent on the
// returned channel, which the caller must drain. In-flight handlers finish
// before Close returns.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, errBuffer)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			msgCtx := messageContext(ctx, msg)
			err := q.retry.run(msgCtx, msg, handler, q.log)
			if err == nil {
				msg.Ack()
				continue
			}
			msg.Nack()
			select {
			case errCh <- fmt.Errorf("%s: %w", topic, err):
			default:
				q.log.ErrorContext(msgCtx, "events: error channel full", "topic", topic, "error", err)
			}
		}
	}()

	return errCh, nil
}

func (p RetryPolicy) run(ctx context.Context, msg *message.Message, handler func(context.Context, *message.Message) error, log logger.Logger) error {
	delay := p.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt >= p.Attempts {
			return fmt.Errorf("events: handler failed after %d attempts: %w", attempt, err)
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt,
			"next_delay", delay,
			"message_id", msg.UUID,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Ping checks the EventBus database connection.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops the subscriber and the forwarder, waits up to 30s for
// in-flight handlers, then closes the publisher and the database.
func (q *EventBus) Close() error {
	var errs []error
	if err := q.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close subscriber: %w", err))
	}
	if q.fwd != nil {
		if err := q.fwd.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: close forwarder: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers")
	}

	if err := q.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close publisher: %w", err))
	}
	if err := q.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events: close db: %w", err))
	}
	return errors.Join(errs...)
}

// slogAdapter bridges logger.Logger to watermill.LoggerAdapter.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
