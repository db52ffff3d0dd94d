// Package events fans engagement changes out to live websocket clients
// and the message bus.
package events

import (
	"context"
	"errors"
	"sync"

	"vidhub/pkg/models"
)

type Publisher interface {
	Publish(ctx context.Context, ev models.EngagementEvent) error
}

type Nop struct{}

func (Nop) Publish(context.Context, models.EngagementEvent) error { return nil }

// Multi publishes to every publisher and joins their failures.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev models.EngagementEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []models.EngagementEvent
}

func (r *Recorder) Publish(_ context.Context, ev models.EngagementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []models.EngagementEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.EngagementEvent(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, ev := range r.Events() {
		out = append(out, ev.Type)
	}
	return out
}
