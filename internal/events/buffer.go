package events

import "sync"

type message struct {
	Kind string
	Data []byte
}

// buffer is an unbounded FIFO of pending messages, safe for concurrent use.
type buffer struct {
	lock    sync.Mutex
	pending []*message
}

func newBuffer() *buffer {
	return &buffer{pending: make([]*message, 0, 16)}
}

func (b *buffer) PushBack(msg *message) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.pending = append(b.pending, msg)
	return len(b.pending)
}

func (b *buffer) Pop() *message {
	b.lock.Lock()
	defer b.lock.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	head := b.pending[0]
	b.pending[0] = nil
	b.pending = b.pending[1:]
	return head
}

func (b *buffer) Size() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.pending)
}
