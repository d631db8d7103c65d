package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	ItemCompletedKind string = "transcripts.item.completed"
	ItemFailedKind    string = "transcripts.item.failed"
	BatchDrainedKind  string = "transcripts.batch.drained"

	defaultTopic  string = "transcripts.events"
	defaultSource string = "transcripts.drainer"

	defaultCloseTimeout = 5 * time.Second
)

var ErrProducerClosed = errors.New("event producer is closed")

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// EventProducer is a wrapper around a Writer with the buffer.
// Events are buffered so the caller is never blocked by a slow writer.
// Pending events are flushed when the producer is closed.
type EventProducer struct {
	buffer    *buffer
	wakeCh    chan struct{}
	doneCh    chan struct{}
	stoppedCh chan struct{}
	closeOnce sync.Once
	closed    bool
	mu        sync.RWMutex
	writer    Writer
	topic     string
	source    string
	// ctx is handed to the writer and cancelled when Close gives up on pending events.
	ctx          context.Context
	cancel       context.CancelFunc
	closeTimeout time.Duration
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ctx, cancel := context.WithCancel(context.Background())
	ep := &EventProducer{
		buffer:       newBuffer(),
		wakeCh:       make(chan struct{}, 1),
		doneCh:       make(chan struct{}),
		stoppedCh:    make(chan struct{}),
		writer:       w,
		topic:        defaultTopic,
		source:       defaultSource,
		ctx:          ctx,
		cancel:       cancel,
		closeTimeout: defaultCloseTimeout,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

func (ep *EventProducer) Write(ctx context.Context, kind string, body io.Reader) error {
	d, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	ep.mu.RLock()
	defer ep.mu.RUnlock()
	if ep.closed {
		return ErrProducerClosed
	}

	ep.buffer.PushBack(&message{
		Kind: kind,
		Data: d,
	})

	// wake up the consumer, one pending signal is enough
	select {
	case ep.wakeCh <- struct{}{}:
	default:
	}

	return nil
}

// WriteJSON marshals v and buffers it as an event of the given kind.
func (ep *EventProducer) WriteJSON(ctx context.Context, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ep.Write(ctx, kind, bytes.NewReader(data))
}

// Close flushes the pending events and closes the writer. If the flush does not finish
// within the close timeout, the write in flight is cancelled and the remaining events are
// dropped. The writer is closed only once the flushing goroutine has stopped.
func (ep *EventProducer) Close() error {
	var closeErr error
	ep.closeOnce.Do(func() {
		ep.mu.Lock()
		ep.closed = true
		ep.mu.Unlock()
		defer ep.cancel()

		closeCtx, cancel := context.WithTimeout(context.Background(), ep.closeTimeout)
		defer cancel()

		g, ctx := errgroup.WithContext(closeCtx)
		g.Go(func() error {
			close(ep.doneCh)
			select {
			case <-ep.stoppedCh:
			case <-ctx.Done():
				ep.cancel()
				<-ep.stoppedCh
				zap.S().Named("event_producer").Warnw("pending events dropped", "count", ep.buffer.Size())
			}
			return ep.writer.Close(context.Background())
		})
		if err := g.Wait(); err != nil {
			zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
			closeErr = err
			return
		}

		zap.S().Named("event_producer").Debug("event producer closed")
	})
	return closeErr
}

func (ep *EventProducer) run() {
	defer close(ep.stoppedCh)
	for {
		ep.flush()

		select {
		case <-ep.wakeCh:
		case <-ep.doneCh:
			ep.flush()
			return
		}
	}
}

func (ep *EventProducer) flush() {
	for ep.ctx.Err() == nil {
		msg := ep.buffer.Pop()
		if msg == nil {
			return
		}

		e := cloudevents.NewEvent()
		e.SetID(uuid.NewString())
		e.SetSource(ep.source)
		e.SetType(msg.Kind)
		e.SetTime(time.Now())
		_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

		if err := ep.writer.Write(ep.ctx, ep.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to send message", "error", err, "event", e)
		}
	}
}
