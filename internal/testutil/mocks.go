package testutil

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/payment"
	"github.com/cassiomorais/checkout/internal/providers"
)

// --- Order Repository Mock ---

// MockOrderRepository is a mock implementation of order.Repository. It
// stores copies, so tests observe only what was persisted.
type MockOrderRepository struct {
	mu      sync.Mutex
	orders  map[int64]*order.Order
	updates int

	GetByIDFunc          func(ctx context.Context, id int64) (*order.Order, error)
	GetByPaymentHashFunc func(ctx context.Context, hash string) (*order.Order, error)
	UpdatePaymentFunc    func(ctx context.Context, o *order.Order) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[int64]*order.Order)}
}

// AddOrder stores an order directly (test helper).
func (m *MockOrderRepository) AddOrder(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = copyOrder(o)
}

// Order returns the stored order (test helper, no context needed).
func (m *MockOrderRepository) Order(id int64) *order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil
	}
	return copyOrder(o)
}

// Updates returns how many times UpdatePayment succeeded.
func (m *MockOrderRepository) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *MockOrderRepository) GetByPaymentHash(ctx context.Context, hash string) (*order.Order, error) {
	if m.GetByPaymentHashFunc != nil {
		return m.GetByPaymentHashFunc(ctx, hash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentHash == hash {
			return copyOrder(o), nil
		}
	}
	return nil, domainErrors.ErrOrderNotFound
}

func (m *MockOrderRepository) UpdatePayment(ctx context.Context, o *order.Order) error {
	if m.UpdatePaymentFunc != nil {
		return m.UpdatePaymentFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return domainErrors.ErrOrderNotFound
	}
	m.orders[o.ID] = copyOrder(o)
	m.updates++
	return nil
}

func copyOrder(o *order.Order) *order.Order {
	c := *o
	return &c
}

// --- Payment Log Repository Mock ---

// MockLogRepository is a mock implementation of payment.LogRepository.
type MockLogRepository struct {
	mu      sync.Mutex
	entries []*payment.Log

	AddFunc         func(ctx context.Context, entry *payment.Log) error
	ListByOrderFunc func(ctx context.Context, orderID int64) ([]*payment.Log, error)
}

func NewMockLogRepository() *MockLogRepository {
	return &MockLogRepository{}
}

func (m *MockLogRepository) Add(ctx context.Context, entry *payment.Log) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockLogRepository) ListByOrder(ctx context.Context, orderID int64) ([]*payment.Log, error) {
	if m.ListByOrderFunc != nil {
		return m.ListByOrderFunc(ctx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*payment.Log
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Entries returns all stored log entries (test helper).
func (m *MockLogRepository) Entries() []*payment.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*payment.Log(nil), m.entries...)
}

// --- Session Store Mock ---

// MockSessionStore is an in-memory session store with one namespace per scope.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*MockSession
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*MockSession)}
}

func (m *MockSessionStore) For(scope string) providers.Session {
	return m.Session(scope)
}

// Session returns the concrete session of scope (test helper).
func (m *MockSessionStore) Session(scope string) *MockSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[scope]
	if !ok {
		s = NewMockSession()
		m.sessions[scope] = s
	}
	return s
}

// MockSession is a mock implementation of providers.Session.
type MockSession struct {
	mu     sync.Mutex
	values map[string]string

	PutFunc  func(ctx context.Context, key, value string) error
	PullFunc func(ctx context.Context, key string) (string, bool, error)
}

func NewMockSession() *MockSession {
	return &MockSession{values: make(map[string]string)}
}

func (m *MockSession) Put(ctx context.Context, key, value string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MockSession) Pull(ctx context.Context, key string) (string, bool, error) {
	if m.PullFunc != nil {
		return m.PullFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	delete(m.values, key)
	return v, ok, nil
}

// Value reads key without consuming it (test helper).
func (m *MockSession) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// --- Locker Mock ---

// MockLocker is a mock implementation of a per-checkout lock.
type MockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired int

	AcquireFunc func(ctx context.Context, key string) (func(context.Context) error, error)
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]bool)}
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, domainErrors.ErrCheckoutInProgress
	}
	m.held[key] = true
	m.acquired++
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
		return nil
	}, nil
}

// Held reports whether key is currently locked (test helper).
func (m *MockLocker) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}

// Acquired returns how many locks were handed out (test helper).
func (m *MockLocker) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// --- Event Publisher Mock ---

// MockEventPublisher records published checkout events.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []payment.Event

	PublishFunc func(ctx context.Context, ev payment.Event) error
}

func (m *MockEventPublisher) PublishCheckoutEvent(ctx context.Context, ev payment.Event) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns the published events (test helper).
func (m *MockEventPublisher) Events() []payment.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]payment.Event(nil), m.events...)
}

// --- Checkout Metrics Mock ---

// MockMetrics counts checkout observations by "provider/stage/outcome" and
// rejections by "stage/error_type".
type MockMetrics struct {
	mu       sync.Mutex
	Observed map[string]int
	Rejected map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Observed: make(map[string]int), Rejected: make(map[string]int)}
}

func (m *MockMetrics) ObserveCheckout(provider, stage, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Observed[provider+"/"+stage+"/"+outcome]++
}

func (m *MockMetrics) RejectCheckout(stage, errorType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejected[stage+"/"+errorType]++
}

// --- Transaction Manager Mock ---

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Provider Mock ---

// StubProvider is a providers.Provider whose results are set by the test.
type StubProvider struct {
	ID              string
	Valid           bool
	Fields          []providers.SettingField
	EncryptedFields []string

	InitiateFunc func(ctx context.Context, o *order.Order, session providers.Session) *payment.Result
	CompleteFunc func(ctx context.Context, result *payment.Result, session providers.Session) *payment.Result

	mu        sync.Mutex
	completes int
}

func (p *StubProvider) Name() string { return "Stub " + p.ID }
func (p *StubProvider) Identifier() string { return p.ID }
func (p *StubProvider) Validate() bool { return p.Valid }
func (p *StubProvider) Settings() []providers.SettingField { return p.Fields }
func (p *StubProvider) EncryptedSettings() []string { return p.EncryptedFields }

func (p *StubProvider) Initiate(ctx context.Context, o *order.Order, session providers.Session) *payment.Result {
	if p.InitiateFunc != nil {
		return p.InitiateFunc(ctx, o, session)
	}
	return payment.NewResult(o).Redirect("https://gateway.test/" + o.PaymentHash)
}

func (p *StubProvider) Complete(ctx context.Context, result *payment.Result, session providers.Session) *payment.Result {
	p.mu.Lock()
	p.completes++
	p.mu.Unlock()
	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, result, session)
	}
	return result.Success(map[string]any{"status": "paid"})
}

// Completes returns how many times Complete was called (test helper).
func (p *StubProvider) Completes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completes
}
