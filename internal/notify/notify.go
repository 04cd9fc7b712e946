// Package notify publishes a summary of a finished setup to a Pub/Sub topic.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

type Config struct {
	Topic   string        `flag:"topic" desc:"pub/sub topic notified when setup completes" default:""`
	Timeout time.Duration `flag:"timeout" desc:"publish timeout" default:"30s"`
}

type Client interface {
	Publish(ctx context.Context, topic string, data []byte) (string, error)
	Close() error
}

type clientWrapper struct {
	*pubsub.Client
}

func (w *clientWrapper) Publish(ctx context.Context, topic string, data []byte) (string, error) {
	publisher := w.Client.Publisher(topic)
	defer publisher.Stop()

	result := publisher.Publish(ctx, &pubsub.Message{Data: data})
	return result.Get(ctx)
}

func NewClient(ctx context.Context, project string, opts ...option.ClientOption) (Client, error) {
	if project == "" {
		return nil, fmt.Errorf("GCP project ID is required")
	}

	client, err := pubsub.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}

	return &clientWrapper{client}, nil
}

type Step struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

type Summary struct {
	Project   string    `json:"project"`
	Dataset   string    `json:"dataset"`
	Succeeded bool      `json:"succeeded"`
	Steps     []Step    `json:"steps"`
	Finished  time.Time `json:"finished"`
}

type Notifier struct {
	client Client
	config *Config
	logger *slog.Logger
}

// New returns a notifier; with an empty topic Notify does nothing.
func New(client Client, config *Config, logger *slog.Logger) *Notifier {
	return &Notifier{client: client, config: config, logger: logger}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil && n.config.Topic != ""
}

func (n *Notifier) Notify(ctx context.Context, summary *Summary) error {
	if !n.Enabled() {
		return nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()

	id, err := n.client.Publish(ctx, n.config.Topic, data)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.config.Topic, err)
	}

	n.logger.Info("published setup summary", "topic", n.config.Topic, "message", id)
	return nil
}

func (n *Notifier) Close() error {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.Close()
}
