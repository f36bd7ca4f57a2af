// Package pubsub announces finished runs on Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
)

// labeled payloads contribute message attributes so subscribers can filter
// without decoding the body.
type labeled interface {
	Labels() map[string]string
}

// Publisher sends JSON payloads to topics. Topic handles are opened lazily
// and kept until Stop so their batching settings apply across calls.
type Publisher struct {
	client *pubsub.Client

	mu      sync.Mutex
	handles map[string]*pubsub.Topic
}

// New wraps client. Closing client remains the caller's job.
func New(client *pubsub.Client) *Publisher {
	return &Publisher{client: client, handles: map[string]*pubsub.Topic{}}
}

// Publish sends payload to topic and blocks until the server acknowledges it,
// returning the message ID.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) (string, error) {
	switch {
	case p == nil || p.client == nil:
		return "", errors.New("pubsub client is nil")
	case topic == "":
		return "", errors.New("empty topic name")
	}
	msg, err := newMessage(ctx, payload)
	if err != nil {
		return "", err
	}
	id, err := p.handle(topic).Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, err)
	}
	return id, nil
}

// Stop flushes pending messages and releases every topic handle.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, handle := range p.handles {
		handle.Stop()
	}
	clear(p.handles)
}

func (p *Publisher) handle(topic string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	if handle, ok := p.handles[topic]; ok {
		return handle
	}
	handle := p.client.Topic(topic)
	p.handles[topic] = handle
	return handle
}

func newMessage(ctx context.Context, payload any) (*pubsub.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	attrs := attributeCarrier{"content_type": "application/json"}
	if l, ok := payload.(labeled); ok {
		maps.Copy(attrs, l.Labels())
	}
	otel.GetTextMapPropagator().Inject(ctx, attrs)
	return &pubsub.Message{Data: body, Attributes: attrs}, nil
}

// attributeCarrier lets the OTel propagator read and write message attributes.
type attributeCarrier map[string]string

func (c attributeCarrier) Get(key string) string { return c[key] }

func (c attributeCarrier) Set(key, value string) { c[key] = value }

func (c attributeCarrier) Keys() []string {
	return slices.Collect(maps.Keys(c))
}
