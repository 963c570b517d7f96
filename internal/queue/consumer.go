package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/pkg/errors"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// StartMemberConsumer connects to RabbitMQ, declares MemberQueueName and
// appends one line per event to logPath.  It reconnects with exponential
// backoff and returns only when ctx is cancelled.  A message that cannot be
// handled is rejected without requeue so one bad payload cannot spin.
func StartMemberConsumer(ctx context.Context, url, logPath string, log logrus.FieldLogger) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithError(err).Warnf("member-consumer: failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, logPath, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("member-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string, log logrus.FieldLogger) error {
    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("member-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(MemberQueueName, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }
    msgs, err := ch.ConsumeWithContext(ctx, MemberQueueName, "", false, false, false, false, nil)
    if err != nil {
        return errors.Wrap(err, "queue consume")
    }

    for d := range msgs {
        if err := handleMessage(d.Body, logPath); err != nil {
            log.WithError(err).Error("member-consumer: handle message failed")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// handleMessage appends a single human-readable line for ev to logPath.
func handleMessage(body []byte, logPath string) error {
    var ev MemberEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return errors.Wrap(err, "unmarshal")
    }
    if ev.Type == "" || ev.MemberID == 0 {
        return errors.Errorf("incomplete event %q", body)
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return errors.Wrap(err, "mkdir logs")
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return errors.Wrap(err, "open log file")
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] %s | member_id=%d | account=%q | membership=%s\n",
        ev.OccurredAt, ev.Type, ev.MemberID, ev.Account, ev.Membership)
    _, err = f.WriteString(line)
    return errors.Wrap(err, "write log")
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
