package application

import (
	"context"
	"sync"
)

type outboxKey struct{}

// outbox holds the events raised inside an Atomically call until its transaction
// has committed. A rolled back transaction discards them.
type outbox struct {
	mu      sync.Mutex
	pending []func(ctx context.Context)
}

func withOutbox(ctx context.Context, box *outbox) context.Context {
	return context.WithValue(ctx, outboxKey{}, box)
}

func outboxFromContext(ctx context.Context) (*outbox, bool) {
	box, ok := ctx.Value(outboxKey{}).(*outbox)
	return box, ok && box != nil
}

func (b *outbox) add(send func(ctx context.Context)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, send)
}

func (b *outbox) flush(ctx context.Context) {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, send := range pending {
		send(ctx)
	}
}
