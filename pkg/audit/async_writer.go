package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AsyncOptions configures batching for AsyncWriter.
type AsyncOptions struct {
	BufferSize     int           // events queued before Store falls back to a synchronous write
	BatchSize      int           // events per StoreBatch call
	BatchTimeout   time.Duration // max age of a partial batch
	StorageTimeout time.Duration // per-batch storage deadline
}

// AsyncWriter queues events and flushes them to a BatchStorage from a single
// background goroutine. Store returns as soon as the event is queued.
type AsyncWriter struct {
	storage BatchStorage
	opts    AsyncOptions
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewAsyncWriter starts the flush worker. Call Close on shutdown to drain the queue.
func NewAsyncWriter(storage BatchStorage, opts AsyncOptions, log *slog.Logger) *AsyncWriter {
	if storage == nil {
		panic("audit: batch storage cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	w := &AsyncWriter{
		storage: storage,
		opts:    opts,
		log:     log,
		queue:   make(chan Event, opts.BufferSize),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Store queues the event. When the buffer is full the event is written synchronously.
func (w *AsyncWriter) Store(ctx context.Context, event Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return ErrStorageNotAvailable
	}

	select {
	case w.queue <- event:
		return nil
	default:
		return w.storage.StoreBatch(ctx, []Event{event})
	}
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()

	batch := make([]Event, 0, w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Detached from request contexts: the caller is long gone by now.
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.StorageTimeout)
		defer cancel()
		if err := w.storage.StoreBatch(ctx, batch); err != nil {
			w.log.Error("failed to flush audit batch", "error", err, "events", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-w.queue:
			batch = append(batch, e)
			if len(batch) >= w.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case e := <-w.queue:
					batch = append(batch, e)
					if len(batch) >= w.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting events and waits for queued ones to be flushed.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
