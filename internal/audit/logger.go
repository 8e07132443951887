package audit

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"careergate/internal/platform/privacy"
	"careergate/pkg/requestcontext"
)

// DefaultAppendTimeout bounds a single store append.
const DefaultAppendTimeout = 2 * time.Second

// Logger records privileged actions. It is best-effort: Record never
// returns an error, and a synchronous append gives up after the append
// timeout. Call Record only after the action succeeded.
type Logger struct {
	store         Store
	records       chan Record
	wg            sync.WaitGroup
	logger        *slog.Logger
	metrics       *Metrics
	now           func() time.Time
	appendTimeout time.Duration
	async         bool

	mu     sync.RWMutex
	closed bool
}

type Option func(*Logger)

// WithAsyncBuffer queues records and persists them in a background
// goroutine. Records are dropped when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(l *Logger) {
		if size > 0 {
			l.records = make(chan Record, size)
			l.async = true
		}
	}
}

// WithAppendTimeout overrides DefaultAppendTimeout. A store that is still
// writing when it expires has its context cancelled and the record counts
// as a failure.
func WithAppendTimeout(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.appendTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

func NewLogger(store Store, opts ...Option) *Logger {
	l := &Logger{
		store:         store,
		logger:        slog.Default(),
		appendTimeout: DefaultAppendTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.async {
		l.wg.Add(1)
		go l.drain()
	}
	return l
}

// Record appends an entry for action performed by actorID. targetID and
// metadata are optional. Failures are logged and counted for operators.
func (l *Logger) Record(ctx context.Context, action Action, actorID, targetID string, metadata map[string]any) {
	rec := Record{
		ID:         uuid.New(),
		Action:     action,
		ActorID:    actorID,
		TargetID:   targetID,
		Metadata:   enrich(ctx, metadata),
		OccurredAt: l.timestamp(ctx),
	}

	if !l.async {
		// Detached from request cancellation. persist applies the append timeout.
		l.persist(context.WithoutCancel(ctx), rec)
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.drop(ctx, rec, "audit logger closed, record dropped")
		return
	}
	select {
	case l.records <- rec:
	default:
		l.drop(ctx, rec, "audit buffer full, record dropped")
	}
}

// timestamp prefers the injected clock, then the pinned request time.
func (l *Logger) timestamp(ctx context.Context) time.Time {
	if l.now != nil {
		return l.now().UTC()
	}
	return requestcontext.Now(ctx).UTC()
}

// Close stops accepting records and waits for queued ones to be written.
func (l *Logger) Close() {
	if !l.async {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.records)
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for rec := range l.records {
		l.persist(context.Background(), rec)
	}
}

func (l *Logger) persist(ctx context.Context, rec Record) {
	ctx, cancel := context.WithTimeout(ctx, l.appendTimeout)
	defer cancel()
	if err := l.store.Append(ctx, rec); err != nil {
		l.metrics.incFailure(rec.Action)
		l.logger.ErrorContext(ctx, "failed to persist audit record",
			"error", err,
			"action", rec.Action,
			"actor_id", rec.ActorID,
			"record_id", rec.ID,
		)
		return
	}
	l.metrics.incAppended(rec.Action)
}

func (l *Logger) drop(ctx context.Context, rec Record, msg string) {
	l.metrics.incDropped()
	l.logger.WarnContext(ctx, msg,
		"action", rec.Action,
		"actor_id", rec.ActorID,
	)
}

// enrich copies metadata and adds request correlation and a coarse device
// description. The raw user agent string is not stored.
func enrich(ctx context.Context, metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata)+4)
	maps.Copy(out, metadata)

	if id := requestcontext.RequestID(ctx); id != "" {
		out["request_id"] = id
	}
	if raw := requestcontext.UserAgent(ctx); raw != "" {
		ua := useragent.New(raw)
		browser, _ := ua.Browser()
		if browser != "" {
			out["browser"] = browser
		}
		if os := ua.OS(); os != "" {
			out["os"] = os
		}
		out["mobile"] = ua.Mobile()
	}
	if network := privacy.ClientNetwork(requestcontext.ClientIP(ctx)); network != "" {
		out["client_network"] = network
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
