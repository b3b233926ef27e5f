package service

import (
	"context"
	"sync"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/shopspring/decimal"
)

// In-memory stand-ins for the pgx stores and the AMQP publisher. They
// mirror the stores' contracts exactly: sentinel errors, idempotent
// get-or-create, terminal-status no-ops.

type fakeWalletStore struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	failWith error
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{balances: map[string]decimal.Decimal{}}
}

func (s *fakeWalletStore) EnsureWallet(ctx context.Context, agentID string, initialBalance decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	if _, ok := s.balances[agentID]; ok {
		return false, nil
	}
	s.balances[agentID] = initialBalance
	return true, nil
}

func (s *fakeWalletStore) ApplyBalanceChange(ctx context.Context, agentID string, amount decimal.Decimal, direction string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return decimal.Zero, s.failWith
	}
	balance, ok := s.balances[agentID]
	if !ok {
		return decimal.Zero, models.ErrWalletNotFound
	}
	if direction == domain.DirectionDebit {
		if balance.LessThan(amount) {
			return decimal.Zero, models.ErrInsufficientFunds
		}
		balance = balance.Sub(amount)
	} else {
		balance = balance.Add(amount)
	}
	s.balances[agentID] = balance
	return balance, nil
}

func (s *fakeWalletStore) GetWallet(ctx context.Context, agentID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[agentID]
	if !ok {
		return nil, models.ErrWalletNotFound
	}
	return &models.Wallet{AgentID: agentID, Balance: balance, IsActive: true}, nil
}

func (s *fakeWalletStore) balance(agentID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[agentID]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

type fakeCommissionStore struct {
	mu          sync.Mutex
	rates       map[string]*models.CommissionRate
	commissions map[string]*models.CommissionTransaction
	failWith    error
}

func newFakeCommissionStore() *fakeCommissionStore {
	return &fakeCommissionStore{
		rates:       map[string]*models.CommissionRate{},
		commissions: map[string]*models.CommissionTransaction{},
	}
}

func (s *fakeCommissionStore) EnsureRate(ctx context.Context, r *models.CommissionRate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	if _, ok := s.rates[r.AgentID]; ok {
		return false, nil
	}
	cp := *r
	s.rates[r.AgentID] = &cp
	return true, nil
}

func (s *fakeCommissionStore) UpdateRate(ctx context.Context, r *models.CommissionRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rates[r.AgentID]; !ok {
		return models.ErrRateNotFound
	}
	cp := *r
	s.rates[r.AgentID] = &cp
	return nil
}

func (s *fakeCommissionStore) GetRate(ctx context.Context, agentID string) (*models.CommissionRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rates[agentID]
	if !ok {
		return nil, models.ErrRateNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeCommissionStore) CreateCommission(ctx context.Context, c *models.CommissionTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.commissions[c.TransactionID]; ok {
		return models.ErrDuplicateRecord
	}
	cp := *c
	s.commissions[c.TransactionID] = &cp
	return nil
}

func (s *fakeCommissionStore) commissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commissions)
}

// fakeRateProvider reads straight through to the commission store and
// counts Put/Invalidate calls so cache interaction can be asserted.
type fakeRateProvider struct {
	store       *fakeCommissionStore
	mu          sync.Mutex
	puts        int
	invalidated []string
}

func (p *fakeRateProvider) Get(ctx context.Context, agentID string) (*models.CommissionRate, error) {
	return p.store.GetRate(ctx, agentID)
}

func (p *fakeRateProvider) Put(ctx context.Context, rate *models.CommissionRate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.puts++
}

func (p *fakeRateProvider) Invalidate(ctx context.Context, agentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidated = append(p.invalidated, agentID)
}

type trackedTransaction struct {
	Status            string
	CommissionAmount  decimal.Decimal
	CommissionApplied bool
	ErrorMessage      string
}

type fakeTransactionStore struct {
	mu       sync.Mutex
	rows     map[string]*trackedTransaction
	failWith error
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{rows: map[string]*trackedTransaction{}}
}

func (s *fakeTransactionStore) seed(txID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[txID] = &trackedTransaction{Status: domain.TxStatusInitiated}
}

func (s *fakeTransactionStore) Complete(ctx context.Context, txID string, commissionAmount decimal.Decimal, commissionApplied bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	row, ok := s.rows[txID]
	if !ok {
		return models.ErrTransactionNotFound
	}
	if domain.TerminalStatus(row.Status) {
		return nil
	}
	row.Status = domain.TxStatusSuccessful
	row.CommissionAmount = commissionAmount
	row.CommissionApplied = commissionApplied
	return nil
}

func (s *fakeTransactionStore) Fail(ctx context.Context, txID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	row, ok := s.rows[txID]
	if !ok {
		return models.ErrTransactionNotFound
	}
	if domain.TerminalStatus(row.Status) {
		return nil
	}
	row.Status = domain.TxStatusFailed
	row.ErrorMessage = reason
	return nil
}

func (s *fakeTransactionStore) StampCommission(ctx context.Context, txID string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[txID]
	if !ok {
		return models.ErrTransactionNotFound
	}
	if domain.TerminalStatus(row.Status) {
		return nil
	}
	row.CommissionAmount = amount
	row.CommissionApplied = true
	return nil
}

func (s *fakeTransactionStore) row(txID string) *trackedTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[txID]
	if !ok {
		return nil
	}
	cp := *row
	return &cp
}
