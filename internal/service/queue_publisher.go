// Package service provides integrations that sit behind the HTTP handlers:
// broker publishing and transactional email dispatch. Errors are logged and
// returned so callers can ignore failures without interrupting the main
// request flow; a lost event never rolls back a committed order.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/idturva/subscription-portal/internal/queue"
)

// PublishOrderCreated publishes an OrderCreatedEvent to the order.created
// queue for the email worker. Messages are marked persistent so they
// survive broker restarts.
func PublishOrderCreated(ctx context.Context, event q.OrderCreatedEvent) error {
	return publish(ctx, q.OrderCreatedQueue, event)
}

// PublishOrderConfirmed publishes an OrderConfirmedEvent to the
// order.confirmed queue for the audit logger.
func PublishOrderConfirmed(ctx context.Context, event q.OrderConfirmedEvent) error {
	return publish(ctx, q.OrderConfirmedQueue, event)
}

func publish(ctx context.Context, queueName string, event interface{}) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
