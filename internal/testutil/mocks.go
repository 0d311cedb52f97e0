// Package testutil provides in-memory mocks of the repository and domain
// collaborator interfaces, for fast service-level tests that don't need a
// real Postgres instance.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// MockTransactionStore is an in-memory repository.Store. Every mutation
// recomputes cumulative_delta from scratch for the affected owner, in
// ordering-key order, rather than running the incremental repair the real
// store does — this keeps the mock simple while still enforcing the
// prefix-sum invariant the real store optimizes around.
type MockTransactionStore struct {
	mu     sync.Mutex
	rows   map[int32]*domain.Transaction
	nextID int32
	clock  func() time.Time
}

func NewMockTransactionStore() *MockTransactionStore {
	return &MockTransactionStore{
		rows:  make(map[int32]*domain.Transaction),
		clock: time.Now,
	}
}

// SetClock overrides the store's notion of "now", for tests that need
// strictly increasing created_at/updated_at timestamps deterministically.
func (m *MockTransactionStore) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func (m *MockTransactionStore) Insert(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *tx
	m.nextID++
	cp.ID = m.nextID
	now := m.clock()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.rows[cp.ID] = &cp

	m.recompute(cp.OwnerID)
	return m.clone(cp.ID), nil
}

func (m *MockTransactionStore) Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[tx.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	cp := *tx
	cp.OwnerID = existing.OwnerID
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = m.clock()
	m.rows[cp.ID] = &cp

	m.recompute(cp.OwnerID)
	return m.clone(cp.ID), nil
}

func (m *MockTransactionStore) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	ownerID := existing.OwnerID
	delete(m.rows, id)
	m.recompute(ownerID)
	return nil
}

func (m *MockTransactionStore) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return m.clone(id), nil
}

func (m *MockTransactionStore) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Transaction
	for _, r := range m.rows {
		out = append(out, cloneRow(r))
	}
	sortDescByKey(out)
	return out, nil
}

// ListByOwner always returns date DESC, created_at DESC, matching the
// postgres store — independent of any QueryOptions, since this entry point
// takes none.
func (m *MockTransactionStore) ListByOwner(ctx context.Context, ownerID int32) ([]*domain.Transaction, error) {
	m.mu.Lock()
	var out []*domain.Transaction
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			out = append(out, cloneRow(r))
		}
	}
	m.mu.Unlock()
	sortDescByKey(out)
	return out, nil
}

func (m *MockTransactionStore) ListByOwnerAndKind(ctx context.Context, ownerID int32, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	m.mu.Lock()
	var out []*domain.Transaction
	for _, r := range m.rows {
		if r.OwnerID == ownerID && r.Kind == kind {
			out = append(out, cloneRow(r))
		}
	}
	m.mu.Unlock()
	sortDescByKey(out)
	return out, nil
}

func (m *MockTransactionStore) ListByOwnerAndDateRange(ctx context.Context, ownerID int32, from, to time.Time) ([]*domain.Transaction, error) {
	if from.After(to) {
		return nil, domain.ErrInvalidDateRange
	}

	m.mu.Lock()
	var out []*domain.Transaction
	for _, r := range m.rows {
		if r.OwnerID == ownerID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, cloneRow(r))
		}
	}
	m.mu.Unlock()
	sortDescByKey(out)
	return out, nil
}

func (m *MockTransactionStore) ListByOwnerAndGroup(ctx context.Context, ownerID, groupID int32) ([]*domain.Transaction, error) {
	m.mu.Lock()
	var out []*domain.Transaction
	for _, r := range m.rows {
		if r.OwnerID == ownerID && r.GroupID != nil && *r.GroupID == groupID {
			out = append(out, cloneRow(r))
		}
	}
	m.mu.Unlock()
	sortDescByKey(out)
	return out, nil
}

func (m *MockTransactionStore) CountByOwner(ctx context.Context, ownerID int32) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (m *MockTransactionStore) LastRow(ctx context.Context, ownerID int32) (*domain.Transaction, error) {
	m.mu.Lock()
	var rows []*domain.Transaction
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			rows = append(rows, cloneRow(r))
		}
	}
	m.mu.Unlock()

	if len(rows) == 0 {
		return nil, nil
	}
	sortAscByKey(rows)
	return rows[len(rows)-1], nil
}

func (m *MockTransactionStore) ListByOwnerFiltered(ctx context.Context, ownerID int32, q domain.QueryOptions) ([]*domain.Transaction, error) {
	if q.DateFrom != nil && q.DateTo != nil && q.DateFrom.After(*q.DateTo) {
		return nil, domain.ErrInvalidDateRange
	}

	m.mu.Lock()
	var out []*domain.Transaction
	for _, r := range m.rows {
		if r.OwnerID != ownerID {
			continue
		}
		if !matchesFilter(r, q) {
			continue
		}
		out = append(out, cloneRow(r))
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return lessByQuery(out[i], out[j], q)
	})
	return out, nil
}

func matchesFilter(r *domain.Transaction, q domain.QueryOptions) bool {
	if q.Subject != nil && *q.Subject != "" && !strings.Contains(strings.ToLower(r.Subject), strings.ToLower(*q.Subject)) {
		return false
	}
	if len(q.CategoryIDs) > 0 {
		if r.CategoryID == nil {
			return false
		}
		found := false
		for _, id := range q.CategoryIDs {
			if id == *r.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.PaymentMethods) > 0 {
		found := false
		for _, pm := range q.PaymentMethods {
			if pm == r.PaymentMethod {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Kind != nil && r.Kind != *q.Kind {
		return false
	}
	if q.DateFrom != nil && r.Date.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && r.Date.After(*q.DateTo) {
		return false
	}
	return true
}

func lessByQuery(a, b *domain.Transaction, q domain.QueryOptions) bool {
	desc := !q.SortAscending
	if !a.Date.Equal(b.Date) {
		if desc {
			return a.Date.After(b.Date)
		}
		return a.Date.Before(b.Date)
	}
	if c := compareSortField(a, b, q.SortBy); c != 0 {
		if desc {
			return c > 0
		}
		return c < 0
	}
	if desc {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func compareSortField(a, b *domain.Transaction, f domain.SortField) int {
	switch f {
	case domain.SortBySubject:
		return strings.Compare(a.Subject, b.Subject)
	case domain.SortByPaymentMethod:
		return strings.Compare(string(a.PaymentMethod), string(b.PaymentMethod))
	case domain.SortByCategory:
		return compareNullableInt32(a.CategoryID, b.CategoryID)
	case domain.SortByAmount:
		return a.Amount.Cmp(b.Amount)
	default:
		return 0
	}
}

func compareNullableInt32(a, b *int32) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// recompute walks every row the owner has, in ordering-key order, and
// rebuilds cumulative_delta as a running sum of signed_amount. Callers must
// hold m.mu.
func (m *MockTransactionStore) recompute(ownerID int32) {
	var owned []*domain.Transaction
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			owned = append(owned, r)
		}
	}
	sortAscByKey(owned)

	running := decimal.Zero
	for _, r := range owned {
		running = running.Add(r.SignedAmount)
		r.CumulativeDelta = running
	}
}

func (m *MockTransactionStore) clone(id int32) *domain.Transaction {
	return cloneRow(m.rows[id])
}

func cloneRow(r *domain.Transaction) *domain.Transaction {
	cp := *r
	return &cp
}

func sortAscByKey(rows []*domain.Transaction) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessByKey(rows[i], rows[j])
	})
}

func sortDescByKey(rows []*domain.Transaction) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessByKey(rows[j], rows[i])
	})
}

func lessByKey(a, b *domain.Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// MockOwnerRepository is an in-memory domain.OwnerRepository.
type MockOwnerRepository struct {
	mu     sync.Mutex
	owners map[int32]*domain.Owner
}

func NewMockOwnerRepository() *MockOwnerRepository {
	return &MockOwnerRepository{owners: make(map[int32]*domain.Owner)}
}

// Seed installs an owner directly, bypassing validation, for test setup.
func (m *MockOwnerRepository) Seed(o *domain.Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[o.ID] = o
}

func (m *MockOwnerRepository) Exists(ownerID int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.owners[ownerID]
	return ok, nil
}

func (m *MockOwnerRepository) GetByID(ownerID int32) (*domain.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[ownerID]
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOwnerRepository) SetInitialBalance(ownerID int32, value decimal.Decimal) (*domain.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[ownerID]
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}
	o.InitialBalance = value
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

// MockCategoryRepository is an in-memory domain.CategoryRepository.
type MockCategoryRepository struct {
	mu         sync.Mutex
	categories map[int32]*domain.Category
	inUse      map[int32]bool
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[int32]*domain.Category),
		inUse:      make(map[int32]bool),
	}
}

func (m *MockCategoryRepository) Seed(c *domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
}

// SetInUse controls what HasTransactions reports for a category, for tests
// that exercise the RESTRICT policy without wiring a real ledger store.
func (m *MockCategoryRepository) SetInUse(categoryID int32, inUse bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inUse[categoryID] = inUse
}

func (m *MockCategoryRepository) Exists(categoryID int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.categories[categoryID]
	return ok, nil
}

func (m *MockCategoryRepository) GetByID(categoryID int32) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCategoryRepository) HasTransactions(categoryID int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inUse[categoryID], nil
}

// MockGroupRepository is an in-memory domain.GroupRepository.
type MockGroupRepository struct {
	mu     sync.Mutex
	groups map[int32]*domain.TransactionGroup
	store  *MockTransactionStore
}

// NewMockGroupRepository optionally takes the transaction store so Delete
// can null out group_id on referencing rows, mirroring the real
// repository's SET-NULL behavior.
func NewMockGroupRepository(store *MockTransactionStore) *MockGroupRepository {
	return &MockGroupRepository{groups: make(map[int32]*domain.TransactionGroup), store: store}
}

func (m *MockGroupRepository) Seed(g *domain.TransactionGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = g
}

func (m *MockGroupRepository) Exists(groupID int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.groups[groupID]
	return ok, nil
}

func (m *MockGroupRepository) GetByID(groupID int32) (*domain.TransactionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockGroupRepository) Delete(groupID int32) error {
	m.mu.Lock()
	if _, ok := m.groups[groupID]; !ok {
		m.mu.Unlock()
		return domain.ErrGroupNotFound
	}
	delete(m.groups, groupID)
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, r := range m.store.rows {
		if r.GroupID != nil && *r.GroupID == groupID {
			r.GroupID = nil
		}
	}
	return nil
}
