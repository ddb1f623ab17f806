package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const emailQueueName = "notification.email"

// RabbitMQへpublishするNotifier。
// 接続は都度張らず、チャネルが死んだら次のSendで張り直す。
type AMQPNotifier struct {
	url  string
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPNotifier(url string) *AMQPNotifier {
	return &AMQPNotifier{url: url}
}

func (n *AMQPNotifier) Send(ctx context.Context, recipient string, subject string, body string) error {
	ch, err := n.channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}

	msg := EmailMessage{
		MessageID: uuid.NewString(),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		QueuedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email message: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", emailQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.MessageID,
		Body:         payload,
	})
	if err != nil {
		// 次回のために張り直す
		n.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}

	return nil
}

func (n *AMQPNotifier) channel() (*amqp.Channel, error) {
	if n.ch != nil && !n.ch.IsClosed() {
		return n.ch, nil
	}

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(emailQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	n.conn = conn
	n.ch = ch
	return ch, nil
}

func (n *AMQPNotifier) reset() {
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}
