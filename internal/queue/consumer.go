package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartSalesConsumer connects to RabbitMQ, declares the sale.settled queue
// (durable), and starts consuming messages. Each event is appended to
// logs/sales.log in a single-line, human-friendly format so settled (and
// anomalous) sales can be audited without database access. The function
// runs a reconnect loop with capped backoff; it keeps running and logs any
// processing errors while rejecting the offending message so the server
// continues operating.
func StartSalesConsumer() error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(brokerURL())
        if err != nil {
            log.Printf("sales-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("sales-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("sales-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(saleQueueName, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(saleQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(d.Body); err != nil {
            log.Printf("sales-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
    var ev SaleSettledEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "sales.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    flag := ""
    if ev.Anomaly {
        flag = " | ANOMALY: exclusivity already granted, needs reconciliation"
    }

    line := fmt.Sprintf("[%s] Sale settled | intent=%s | beat=%s (%q) | license=%s | buyer=%s | amount=%d %s | exclusive=%t%s\n",
        ev.SettledAt, ev.PaymentIntentID, ev.BeatID, ev.BeatName, ev.LicenseType, ev.BuyerEmail, ev.AmountCents, ev.Currency, ev.Exclusive, flag)

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
