package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/karsa-studio/api/internal/services"
)

// PubSubNotificationPublisher publishes notification delivery jobs to a
// Pub/Sub topic consumed by the email and chat workers.
type PubSubNotificationPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubNotificationPublisher constructs a Pub/Sub backed notification job publisher.
func NewPubSubNotificationPublisher(topic *pubsub.Topic) (*PubSubNotificationPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub notification publisher: topic is required")
	}
	return &PubSubNotificationPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishNotificationJob enqueues a notification job message on the configured topic.
func (p *PubSubNotificationPublisher) PublishNotificationJob(ctx context.Context, message services.NotificationJobMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub notification publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal notification job: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "notificationId", message.NotificationID)
	setAttr(attrs, "type", message.Type)
	setAttr(attrs, "relatedId", message.RelatedID)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish notification job: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

var _ services.NotificationJobPublisher = (*PubSubNotificationPublisher)(nil)
