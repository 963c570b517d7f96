package queue

import (
    "context"
    "encoding/json"
    "time"

    "github.com/pkg/errors"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
    "github.com/sony/gobreaker"
)

// Publisher sends MemberEvents to MemberQueueName.  Each Publish dials its
// own connection; a circuit breaker stops dialing a dead broker for a while
// after repeated failures so requests do not pay a dial timeout each time.
type Publisher struct {
    url     string
    log     logrus.FieldLogger
    breaker *gobreaker.CircuitBreaker
    dial    func(url string) (*amqp.Connection, error)
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
    p := &Publisher{url: url, log: log, dial: amqp.Dial}
    p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
        Name:        "member-events",
        MaxRequests: 1,
        Timeout:     30 * time.Second,
        ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 3 },
        OnStateChange: func(name string, from, to gobreaker.State) {
            log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
                Warn("rabbitmq: publisher breaker state changed")
        },
    })
    return p
}

// Publish marshals ev and publishes it as a persistent message.  Errors are
// logged and returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev MemberEvent) error {
    _, err := p.breaker.Execute(func() (interface{}, error) {
        return nil, p.publish(ctx, ev)
    })
    if err != nil {
        p.log.WithError(err).WithField("event", ev.Type).Warn("rabbitmq: publish failed")
    }
    return err
}

func (p *Publisher) publish(ctx context.Context, ev MemberEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return errors.Wrap(err, "marshal event")
    }

    conn, err := p.dial(p.url)
    if err != nil {
        return errors.Wrap(err, "dial")
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(MemberQueueName, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    // default exchange, routing key = queue name
    return errors.Wrap(ch.PublishWithContext(ctx, "", MemberQueueName, false, false, pub), "publish")
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, MemberEvent) error { return nil }
