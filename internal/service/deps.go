package service

import (
	"log/slog"
	"sync"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Publisher receives bracket updates after they are committed.
type Publisher interface {
	Publish(room, messageType string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) {}

// Deps are the collaborators shared by the engine services. Services working on the same
// brackets must share one Deps so they share the bracket locks.
type Deps struct {
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Metrics   *metrics.Engine
	Publisher Publisher
	Locks     *BracketLocks
}

func NewDeps(logger *slog.Logger, tracer trace.Tracer, m *metrics.Engine, publisher Publisher) Deps {
	return Deps{
		Logger:    logger,
		Tracer:    tracer,
		Metrics:   m,
		Publisher: publisher,
		Locks:     NewBracketLocks(),
	}.withDefaults()
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer("service")
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewEngine(prometheus.NewRegistry())
	}
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Locks == nil {
		d.Locks = NewBracketLocks()
	}
	return d
}

// BracketLocks serializes every state change of a bracket inside one process. The database
// transaction covers the rest.
type BracketLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewBracketLocks() *BracketLocks {
	return &BracketLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock blocks until the bracket is free and returns the matching unlock.
func (l *BracketLocks) Lock(bracketID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[bracketID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[bracketID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
