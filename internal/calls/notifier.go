package calls

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Notifier is the change-notification side of the call record: one channel
// per call id, carrying the status value written to storage. Delivery is
// best-effort; the polling source compensates for silent or dropped
// subscriptions, so no retry logic lives here.
type Notifier interface {
	Publish(ctx context.Context, callID string, status CallStatus) error

	// Subscribe returns a channel of status updates for one call id and a
	// release function. The channel closes when the context is canceled or
	// the release function runs, whichever comes first.
	Subscribe(ctx context.Context, callID string) (<-chan CallStatus, func(), error)
}

// RedisNotifier implements Notifier over Redis pub/sub.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier { return &RedisNotifier{rdb: rdb} }

func callChannel(callID string) string { return fmt.Sprintf("calls:%s:status", callID) }

func (n *RedisNotifier) Publish(ctx context.Context, callID string, status CallStatus) error {
	return n.rdb.Publish(ctx, callChannel(callID), string(status)).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, callID string) (<-chan CallStatus, func(), error) {
	sub := n.rdb.Subscribe(ctx, callChannel(callID))
	// Force the subscription onto the wire before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan CallStatus)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				s := CallStatus(msg.Payload)
				select {
				case out <- s:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, release, nil
}

// MemoryNotifier is an in-process Notifier for tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[string][]chan CallStatus
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[string][]chan CallStatus)}
}

// Publish delivers under the lock so a concurrent release cannot close a
// channel mid-send. Sends never block: a full subscriber drops the update,
// which the best-effort contract allows.
func (n *MemoryNotifier) Publish(ctx context.Context, callID string, status CallStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[callID] {
		select {
		case ch <- status:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(ctx context.Context, callID string) (<-chan CallStatus, func(), error) {
	ch := make(chan CallStatus, 16)
	n.mu.Lock()
	n.subs[callID] = append(n.subs[callID], ch)
	n.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			list := n.subs[callID]
			for i, c := range list {
				if c == ch {
					n.subs[callID] = append(list[:i], list[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	return ch, release, nil
}
