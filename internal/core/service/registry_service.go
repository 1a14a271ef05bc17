package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/supply-chain/internal/core/domain"
	"github.com/rl1809/supply-chain/internal/metrics"
	"github.com/rl1809/supply-chain/internal/port"
)

var (
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrClosed             = errors.New("registry closed")
	ErrHistoryUnavailable = errors.New("event history not configured")
)

const (
	opAdd     = "add_item"
	opBuy     = "buy_item"
	opShip    = "ship_item"
	opReceive = "receive_item"
	opFetch   = "fetch_item"

	idempotencyKeyPrefix = "buy:"
)

// Service is the single sequential processor of registry operations. Every
// operation holds mu from its first guard until its notification is queued.
// Queueing never blocks, so notification delivery cannot hold up the registry.
type Service struct {
	mu       sync.Mutex
	registry *domain.Registry
	escrow   domain.Address
	closed   bool

	ledger  port.Ledger
	cache   port.CacheRepository
	journal port.EventJournal
	events  *eventQueue

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithIdempotency rejects buy requests that reuse a request ID.
func WithIdempotency(cache port.CacheRepository) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithJournal(journal port.EventJournal) Option {
	return func(s *Service) {
		s.journal = journal
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a registry owned by owner. Buyer payments pass through
// the escrow account on ledger before reaching the seller. queueSize buffers
// the channel returned by Events; notifications beyond it wait in memory.
// Close must be called to release the queue.
func NewService(ledger port.Ledger, owner, escrow domain.Address, queueSize int, opts ...Option) *Service {
	s := &Service{
		registry: domain.NewRegistry(owner),
		escrow:   escrow,
		ledger:   ledger,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer("github.com/rl1809/supply-chain/internal/core/service"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = newEventQueue(queueSize, s.metrics)
	return s
}

type BuyRequest struct {
	RequestID string
	Caller    domain.Address
	Sku       uint64
	Amount    uint64
}

func (s *Service) AddItem(ctx context.Context, caller domain.Address, name string, price uint64) (uint64, error) {
	defer s.metrics.ObserveOperation(opAdd, time.Now())
	_, span := s.tracer.Start(ctx, "registry.AddItem")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return 0, s.reject(span, opAdd, err)
	}
	if caller.IsZero() {
		return 0, s.reject(span, opAdd, &domain.AuthorizationError{Sku: s.registry.NextSku()})
	}

	item := s.registry.Add(caller, name, price)
	span.SetAttributes(attribute.Int64("item.sku", int64(item.Sku)))
	s.metrics.IncrementItemsListed()
	s.emit(domain.StateForSale, item.Sku, caller)

	return item.Sku, nil
}

func (s *Service) BuyItem(ctx context.Context, req BuyRequest) (err error) {
	defer s.metrics.ObserveOperation(opBuy, time.Now())
	ctx, span := s.tracer.Start(ctx, "registry.BuyItem", trace.WithAttributes(
		attribute.Int64("item.sku", int64(req.Sku)),
		attribute.Int64("payment.offered", int64(req.Amount)),
	))
	defer span.End()

	if req.Caller.IsZero() {
		return s.reject(span, opBuy, &domain.AuthorizationError{Sku: req.Sku})
	}

	if req.RequestID != "" && s.cache != nil {
		key := idempotencyKeyPrefix + req.RequestID
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return s.reject(span, opBuy, fmt.Errorf("idempotency check failed: %w", err))
		}
		if !ok {
			return s.reject(span, opBuy, ErrDuplicateRequest)
		}
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.cache.ReleaseIdempotency(context.WithoutCancel(ctx), key); releaseErr != nil {
				s.logger.Warn("failed to release idempotency key", "key", key, "error", releaseErr)
			}
		}()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return s.reject(span, opBuy, err)
	}
	item, err := s.registry.Get(req.Sku)
	if err != nil {
		return s.reject(span, opBuy, err)
	}
	if err := domain.RequireState(item, domain.StateForSale); err != nil {
		return s.reject(span, opBuy, err)
	}
	if err := domain.RequirePaidEnough(item.Sku, req.Amount, item.Price); err != nil {
		return s.reject(span, opBuy, err)
	}

	sold := item.Sold(req.Caller)
	if err := s.registry.Put(sold); err != nil {
		return s.reject(span, opBuy, err)
	}

	overage, err := s.settle(ctx, sold, req.Amount)
	if err != nil {
		if restoreErr := s.registry.Put(item); restoreErr != nil {
			s.logger.Error("failed to restore item after settlement failure", "sku", item.Sku, "error", restoreErr)
		}
		return s.reject(span, opBuy, err)
	}

	s.metrics.AddSettlement(item.Price, overage)
	s.emit(domain.StateSold, item.Sku, req.Caller)

	return nil
}

// ShipItem lets the recorded seller mark a sold item as shipped.
func (s *Service) ShipItem(ctx context.Context, caller domain.Address, sku uint64) error {
	defer s.metrics.ObserveOperation(opShip, time.Now())
	_, span := s.tracer.Start(ctx, "registry.ShipItem", trace.WithAttributes(attribute.Int64("item.sku", int64(sku))))
	defer span.End()

	return s.advance(span, opShip, caller, sku, domain.StateSold, func(item domain.Item) domain.Address {
		return item.Seller
	})
}

// ReceiveItem lets the recorded buyer confirm delivery of a shipped item.
func (s *Service) ReceiveItem(ctx context.Context, caller domain.Address, sku uint64) error {
	defer s.metrics.ObserveOperation(opReceive, time.Now())
	_, span := s.tracer.Start(ctx, "registry.ReceiveItem", trace.WithAttributes(attribute.Int64("item.sku", int64(sku))))
	defer span.End()

	return s.advance(span, opReceive, caller, sku, domain.StateShipped, func(item domain.Item) domain.Address {
		return item.Buyer
	})
}

func (s *Service) advance(span trace.Span, op string, caller domain.Address, sku uint64, from domain.State, custodian func(domain.Item) domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return s.reject(span, op, err)
	}
	item, err := s.registry.Get(sku)
	if err != nil {
		return s.reject(span, op, err)
	}
	if err := domain.RequireState(item, from); err != nil {
		return s.reject(span, op, err)
	}
	if err := domain.VerifyCaller(sku, custodian(item), caller); err != nil {
		return s.reject(span, op, err)
	}

	next := item.Advanced()
	if err := s.registry.Put(next); err != nil {
		return s.reject(span, op, err)
	}
	s.emit(next.State, sku, caller)

	return nil
}

func (s *Service) FetchItem(ctx context.Context, sku uint64) (domain.Item, error) {
	defer s.metrics.ObserveOperation(opFetch, time.Now())
	_, span := s.tracer.Start(ctx, "registry.FetchItem", trace.WithAttributes(attribute.Int64("item.sku", int64(sku))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.registry.Get(sku)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Item{}, err
	}
	return item, nil
}

func (s *Service) Owner() domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Owner()
}

func (s *Service) Escrow() domain.Address {
	return s.escrow
}

func (s *Service) NextSku() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.NextSku()
}

func (s *Service) Balance(ctx context.Context, account domain.Address) (uint64, error) {
	return s.ledger.Balance(ctx, account)
}

// History returns the journaled notifications for sku.
func (s *Service) History(ctx context.Context, sku uint64) ([]domain.Event, error) {
	if s.journal == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.journal.History(ctx, sku)
}

// Events returns the notification stream in transition order. It is closed
// after Close once every queued notification has been received.
func (s *Service) Events() <-chan domain.Event {
	return s.events.out
}

// Close stops accepting operations. Notifications already queued are still
// delivered on Events.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.events.close()
}

func (s *Service) open() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Service) emit(kind domain.State, sku uint64, actor domain.Address) {
	s.events.push(domain.NewEvent(kind, sku, actor, s.now()))
	s.metrics.IncrementTransition(kind.String())
	s.logger.Info("item transitioned", "sku", sku, "state", kind.String(), "actor", string(actor))
}

func (s *Service) reject(span trace.Span, op string, err error) error {
	reason := Reason(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.metrics.IncrementRejection(op, reason)
	s.logger.Debug("operation rejected", "operation", op, "reason", reason, "error", err)
	return err
}

// Reason classifies an operation error for transports and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "authorization"
	case errors.Is(err, domain.ErrInvalidState):
		return "state"
	case errors.Is(err, domain.ErrUnderpaid):
		return "payment"
	case errors.Is(err, domain.ErrSettlementFailed):
		return "settlement"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "internal"
	}
}
