package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime"
)

// memoryBus delivers synchronously to every live forwarder in this process.
type memoryBus struct {
	log    *logger.Logger
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(realtime.StatusMessage)
	closed bool
}

func NewMemoryBus(log *logger.Logger) Bus {
	return &memoryBus{
		log:  log.With("service", "MemoryStatusBus"),
		subs: make(map[int]func(realtime.StatusMessage)),
	}
}

func (b *memoryBus) Publish(ctx context.Context, msg realtime.StatusMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("status bus closed")
	}
	fns := make([]func(realtime.StatusMessage), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(msg)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(m realtime.StatusMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("status bus closed")
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = onMsg
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = map[int]func(realtime.StatusMessage){}
	return nil
}
