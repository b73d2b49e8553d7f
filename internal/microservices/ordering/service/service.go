package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tableside/internal/common/logger"
	"tableside/internal/config"
	"tableside/internal/domain"
	"tableside/internal/microservices/ordering/cart"
	dto "tableside/internal/microservices/ordering/domain/dto"
	"tableside/internal/microservices/ordering/repository"
	"tableside/internal/microservices/ordering/session"
)

type Service struct {
	OrderService OrderServiceInterface
}

// New validates that the configured guest employee exists before wiring the
// order service.
func New(ctx context.Context, repo *repository.Repository, carts *cart.Store, sessions *session.Manager,
	events EventPublisher, cfg config.OrderingConfig, lg *logger.Logger) (*Service, error) {

	svc, err := NewOrderService(ctx, repo, carts, sessions, events, cfg, lg)
	if err != nil {
		return nil, err
	}
	return &Service{OrderService: svc}, nil
}

type OrderServiceInterface interface {
	BindTable(ctx context.Context, sessionID string, tableID int64) (session.Binding, error)
	Unbind(sessionID string)

	Cart(ctx context.Context, caller session.Caller) (dto.CartView, error)
	CartAdd(ctx context.Context, caller session.Caller, productID int64) (dto.CartView, error)
	CartRemove(ctx context.Context, caller session.Caller, productID int64) (dto.CartView, error)
	CartClear(ctx context.Context, caller session.Caller) error

	SubmitOrder(ctx context.Context, caller session.Caller) (domain.Order, bool, error)
	PayOrder(ctx context.Context, caller session.Caller, orderID int64) (domain.Order, error)
	ServeLine(ctx context.Context, caller session.Caller, lineID int64) (domain.Order, domain.OrderLine, error)
	PayLine(ctx context.Context, caller session.Caller, lineID int64) (domain.Order, domain.OrderLine, error)

	GetOpenOrder(ctx context.Context, caller session.Caller) (domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (domain.Order, error)
	Timeline(ctx context.Context, orderID int64, limit, offset int) ([]domain.StatusLogEntry, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListTables(ctx context.Context) ([]domain.Table, error)
}

type OrderService struct {
	catalog  repository.CatalogRepositoryInterface
	orders   repository.OrderRepositoryInterface
	carts    *cart.Store
	sessions *session.Manager
	events   EventPublisher
	lg       *logger.Logger

	guestEmployeeID int64
	attempts        int
	backoff         time.Duration

	tableLocks *keyedMutex
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewOrderService(ctx context.Context, repo *repository.Repository, carts *cart.Store, sessions *session.Manager,
	events EventPublisher, cfg config.OrderingConfig, lg *logger.Logger) (*OrderService, error) {

	if cfg.GuestEmployeeID <= 0 {
		return nil, errors.New("guest employee id is not configured")
	}
	if _, err := repo.CatalogRepo.GetEmployee(ctx, cfg.GuestEmployeeID); err != nil {
		return nil, fmt.Errorf("guest employee %d: %w", cfg.GuestEmployeeID, err)
	}
	if events == nil {
		events = NopPublisher{}
	}
	if lg == nil {
		lg = logger.Nop()
	}
	attempts := cfg.SubmitAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &OrderService{
		catalog:         repo.CatalogRepo,
		orders:          repo.OrderRepo,
		carts:           carts,
		sessions:        sessions,
		events:          events,
		lg:              lg,
		guestEmployeeID: cfg.GuestEmployeeID,
		attempts:        attempts,
		backoff:         cfg.RetryBackoff,
		tableLocks:      newKeyedMutex(),
		now:             func() time.Time { return time.Now().UTC() },
		sleep:           sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// actingEmployee is the caller's employee when an authenticator supplied one,
// the guest employee otherwise.
func (s *OrderService) actingEmployee(ctx context.Context, caller session.Caller) (int64, error) {
	if caller.EmployeeID == 0 {
		return s.guestEmployeeID, nil
	}
	if _, err := s.catalog.GetEmployee(ctx, caller.EmployeeID); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return 0, domain.NewError(domain.KindUnauthorized, "employee %d: %s", caller.EmployeeID, domain.ErrMsgUnknownEmployee)
		}
		return 0, err
	}
	return caller.EmployeeID, nil
}

// actor is the changed_by value written to the status log and events.
func actor(caller session.Caller) string {
	switch {
	case caller.EmployeeID != 0:
		return fmt.Sprintf("employee:%d", caller.EmployeeID)
	case caller.SessionID != "":
		return "guest"
	default:
		return "system"
	}
}

// withRetry runs op until it succeeds, fails with something other than
// Conflict, or runs out of attempts. The wait doubles after every conflict.
func (s *OrderService) withRetry(ctx context.Context, action string, op func() error) error {
	wait := s.backoff
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = op()
		if !domain.IsKind(err, domain.KindConflict) {
			return err
		}
		if attempt == s.attempts {
			break
		}
		s.lg.Warn(action+"_conflict", err, map[string]any{"attempt": attempt, "backoff_ms": wait.Milliseconds()})
		if serr := s.sleep(ctx, wait); serr != nil {
			return serr
		}
		wait *= 2
	}
	return err
}

// publish is best effort: the transition is already committed.
func (s *OrderService) publish(ev domain.OrderEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.lg.Error("event_publish_failed", err, map[string]any{
			"event":    ev.Event,
			"order_id": ev.OrderID,
			"table_id": ev.TableID,
		})
	}
}
