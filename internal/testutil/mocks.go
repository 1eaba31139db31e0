package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockStore is the shared in-memory state behind the mock repositories, so category
// changes are visible to transactions and vice versa.
type MockStore struct {
	mu           sync.Mutex
	users        map[int64]*domain.User
	categories   map[int32]*domain.Category
	transactions map[int32]*domain.Transaction
	nextCategory int32
	nextTx       int32

	Users        *MockUserRepository
	Categories   *MockCategoryRepository
	Transactions *MockTransactionRepository
}

// NewMockStore creates an empty store with its repositories
func NewMockStore() *MockStore {
	s := &MockStore{
		users:        make(map[int64]*domain.User),
		categories:   make(map[int32]*domain.Category),
		transactions: make(map[int32]*domain.Transaction),
		nextCategory: 1,
		nextTx:       1,
	}
	s.Users = &MockUserRepository{store: s}
	s.Categories = &MockCategoryRepository{store: s}
	s.Transactions = &MockTransactionRepository{store: s}
	return s
}

// AddUser adds a user without categories (helper for tests)
func (s *MockStore) AddUser(id int64) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: id, CreatedAt: time.Now()}
	s.users[id] = u
	return u
}

// AddCategory adds a category for a user (helper for tests)
func (s *MockStore) AddCategory(userID int64, name string) *domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(userID, name)
}

func (s *MockStore) addCategoryLocked(userID int64, name string) *domain.Category {
	now := time.Now()
	c := &domain.Category{ID: s.nextCategory, UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}
	s.categories[c.ID] = c
	s.nextCategory++
	return c
}

// AddTransaction stores a transaction as-is (helper for tests)
func (s *MockStore) AddTransaction(t *domain.Transaction) *domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTransactionLocked(t)
}

func (s *MockStore) addTransactionLocked(t *domain.Transaction) *domain.Transaction {
	stored := *t
	stored.ID = s.nextTx
	stored.CreatedAt = time.Now()
	s.nextTx++
	s.transactions[stored.ID] = &stored
	return s.viewLocked(&stored)
}

// CountExpensesIn returns how many expenses reference a category
func (s *MockStore) CountExpensesIn(categoryID int32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// viewLocked returns a copy with the category name joined in
func (s *MockStore) viewLocked(t *domain.Transaction) *domain.Transaction {
	out := *t
	out.CategoryName = ""
	if t.CategoryID != nil {
		if c, ok := s.categories[*t.CategoryID]; ok {
			out.CategoryName = c.Name
		}
	}
	return &out
}

func (s *MockStore) ownedCategoryLocked(userID int64, id int32) (*domain.Category, bool) {
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, false
	}
	return c, true
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	store    *MockStore
	EnsureFn func(user *domain.User, categoryNames []string) (*domain.User, bool, error)
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id int64) (*domain.User, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if u, ok := m.store.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// Ensure creates the user with categories if missing
func (m *MockUserRepository) Ensure(user *domain.User, categoryNames []string) (*domain.User, bool, error) {
	if m.EnsureFn != nil {
		return m.EnsureFn(user, categoryNames)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if existing, ok := m.store.users[user.ID]; ok {
		if user.Username != nil {
			existing.Username = user.Username
		}
		return existing, false, nil
	}
	u := &domain.User{ID: user.ID, Username: user.Username, CreatedAt: time.Now()}
	m.store.users[u.ID] = u
	for _, name := range categoryNames {
		m.store.addCategoryLocked(u.ID, name)
	}
	return u, true, nil
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	store      *MockStore
	ReassignFn func(userID int64, fromID, toID int32) (int64, error)
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.users[category.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	for _, c := range m.store.categories {
		if c.UserID == category.UserID && strings.EqualFold(c.Name, category.Name) {
			return nil, domain.ErrCategoryAlreadyExists
		}
	}
	return m.store.addCategoryLocked(category.UserID, category.Name), nil
}

// GetByID retrieves a category by ID within a user's ledger
func (m *MockCategoryRepository) GetByID(userID int64, id int32) (*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if c, ok := m.store.ownedCategoryLocked(userID, id); ok {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetByName retrieves a category by name, ignoring case
func (m *MockCategoryRepository) GetByName(userID int64, name string) (*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, c := range m.store.categories {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// GetAllByUser retrieves all categories of a user ordered by name
func (m *MockCategoryRepository) GetAllByUser(userID int64) ([]*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make([]*domain.Category, 0)
	for _, c := range m.store.categories {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		li, lj := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if li != lj {
			return li < lj
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Count returns the number of categories a user owns
func (m *MockCategoryRepository) Count(userID int64) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var n int64
	for _, c := range m.store.categories {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Rename updates a category's name
func (m *MockCategoryRepository) Rename(userID int64, id int32, name string) (*domain.Category, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c, ok := m.store.ownedCategoryLocked(userID, id)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	for _, other := range m.store.categories {
		if other.UserID == userID && other.ID != id && strings.EqualFold(other.Name, name) {
			return nil, domain.ErrCategoryAlreadyExists
		}
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return c, nil
}

// ReassignAndDelete moves expenses and deletes the source category
func (m *MockCategoryRepository) ReassignAndDelete(userID int64, fromID, toID int32) (int64, error) {
	if m.ReassignFn != nil {
		return m.ReassignFn(userID, fromID, toID)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.ownedCategoryLocked(userID, fromID); !ok {
		return 0, domain.ErrCategoryNotFound
	}
	if _, ok := m.store.ownedCategoryLocked(userID, toID); !ok {
		return 0, domain.ErrCategoryNotFound
	}
	var moved int64
	for _, t := range m.store.transactions {
		if t.UserID == userID && t.CategoryID != nil && *t.CategoryID == fromID {
			to := toID
			t.CategoryID = &to
			moved++
		}
	}
	delete(m.store.categories, fromID)
	return moved, nil
}

// GetStats returns totals over all expenses in a category
func (m *MockCategoryRepository) GetStats(userID int64, id int32) (*domain.CategoryStats, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c, ok := m.store.ownedCategoryLocked(userID, id)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	stats := &domain.CategoryStats{Category: c, TotalSpent: decimal.Zero, AverageAmount: decimal.Zero}
	for _, t := range m.store.transactions {
		if t.UserID == userID && t.CategoryID != nil && *t.CategoryID == id {
			stats.TotalSpent = stats.TotalSpent.Add(t.Amount)
			stats.ExpenseCount++
		}
	}
	if stats.ExpenseCount > 0 {
		stats.AverageAmount = stats.TotalSpent.Div(decimal.NewFromInt(stats.ExpenseCount)).Round(2)
	}
	return stats, nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	store         *MockStore
	CreateFn      func(transaction *domain.Transaction) (*domain.Transaction, error)
	AggregatesErr error
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.users[transaction.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if transaction.CategoryID != nil {
		if _, ok := m.store.ownedCategoryLocked(transaction.UserID, *transaction.CategoryID); !ok {
			return nil, domain.ErrCategoryNotFound
		}
	}
	return m.store.addTransactionLocked(transaction), nil
}

// GetByID retrieves a transaction by its ID within a user's ledger
func (m *MockTransactionRepository) GetByID(userID int64, id int32) (*domain.Transaction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	t, ok := m.store.transactions[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return m.store.viewLocked(t), nil
}

// GetByDate lists transactions of one kind on a date
func (m *MockTransactionRepository) GetByDate(userID int64, date time.Time, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	return m.filter(func(t *domain.Transaction) bool {
		return t.UserID == userID && t.Kind == kind && t.Date.Equal(date)
	}, false), nil
}

// DeleteByDate removes every transaction of one kind on a date
func (m *MockTransactionRepository) DeleteByDate(userID int64, date time.Time, kind domain.TransactionKind) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var n int64
	for id, t := range m.store.transactions {
		if t.UserID == userID && t.Kind == kind && t.Date.Equal(date) {
			delete(m.store.transactions, id)
			n++
		}
	}
	return n, nil
}

// Delete removes a single transaction and returns it
func (m *MockTransactionRepository) Delete(userID int64, id int32) (*domain.Transaction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	t, ok := m.store.transactions[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	view := m.store.viewLocked(t)
	delete(m.store.transactions, id)
	return view, nil
}

// UpdateCategory moves one expense to another category
func (m *MockTransactionRepository) UpdateCategory(userID int64, id int32, categoryID int32) (*domain.Transaction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	t, ok := m.store.transactions[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	if t.Kind != domain.TransactionKindExpense {
		return nil, domain.ErrNotAnExpense
	}
	if _, ok := m.store.ownedCategoryLocked(userID, categoryID); !ok {
		return nil, domain.ErrCategoryNotFound
	}
	t.CategoryID = &categoryID
	return m.store.viewLocked(t), nil
}

// GetLast returns the newest transactions of one kind
func (m *MockTransactionRepository) GetLast(userID int64, kind domain.TransactionKind, limit int32) ([]*domain.Transaction, error) {
	result := m.filter(func(t *domain.Transaction) bool {
		return t.UserID == userID && t.Kind == kind
	}, true)
	if int(limit) < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// GetYears returns the distinct years with transactions
func (m *MockTransactionRepository) GetYears(userID int64) ([]int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, t := range m.store.transactions {
		if t.UserID == userID && !seen[t.Date.Year()] {
			seen[t.Date.Year()] = true
			years = append(years, t.Date.Year())
		}
	}
	sort.Ints(years)
	return years, nil
}

// GetAggregates groups amounts by (date, category) inside the range
func (m *MockTransactionRepository) GetAggregates(userID int64, kind domain.TransactionKind, dr domain.DateRange) ([]*domain.AggregateRow, error) {
	if m.AggregatesErr != nil {
		return nil, m.AggregatesErr
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	type groupKey struct {
		date     time.Time
		category int32
	}
	groups := make(map[groupKey]*domain.AggregateRow)
	for _, t := range m.store.transactions {
		if t.UserID != userID || t.Kind != kind || !dr.Contains(t.Date) {
			continue
		}
		k := groupKey{date: t.Date}
		if t.CategoryID != nil {
			k.category = *t.CategoryID
		}
		row, ok := groups[k]
		if !ok {
			view := m.store.viewLocked(t)
			row = &domain.AggregateRow{Date: t.Date, CategoryID: view.CategoryID, CategoryName: view.CategoryName, Total: decimal.Zero}
			groups[k] = row
		}
		row.Total = row.Total.Add(t.Amount)
		row.Count++
	}

	result := make([]*domain.AggregateRow, 0, len(groups))
	for _, row := range groups {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result, nil
}

// GetTotals sums income and expense inside the range
func (m *MockTransactionRepository) GetTotals(userID int64, dr domain.DateRange) (*domain.Totals, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	totals := &domain.Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range m.store.transactions {
		if t.UserID != userID || !dr.Contains(t.Date) {
			continue
		}
		if t.Kind == domain.TransactionKindIncome {
			totals.Income = totals.Income.Add(t.Amount)
		} else {
			totals.Expense = totals.Expense.Add(t.Amount)
		}
	}
	return totals, nil
}

func (m *MockTransactionRepository) filter(keep func(*domain.Transaction) bool, newestFirst bool) []*domain.Transaction {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make([]*domain.Transaction, 0)
	for _, t := range m.store.transactions {
		if keep(t) {
			result = append(result, m.store.viewLocked(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if newestFirst {
			if !result[i].Date.Equal(result[j].Date) {
				return result[i].Date.After(result[j].Date)
			}
			return result[i].ID > result[j].ID
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// MockReportCache is an in-memory domain.ReportImageCache that records invalidations
type MockReportCache struct {
	mu            sync.Mutex
	Images        map[string][]byte
	Invalidations []string
	GetErr        error
	generations   map[int64]int64
	// AfterGeneration runs after Generation has read the counter
	AfterGeneration func()
}

// NewMockReportCache creates a new MockReportCache
func NewMockReportCache() *MockReportCache {
	return &MockReportCache{Images: make(map[string][]byte), generations: make(map[int64]int64)}
}

func (m *MockReportCache) Generation(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	gen := m.generations[userID]
	hook := m.AfterGeneration
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return gen, nil
}

func (m *MockReportCache) Get(_ context.Context, key domain.ReportImageKey) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	img, ok := m.Images[key.String()]
	return img, ok, nil
}

func (m *MockReportCache) Set(_ context.Context, key domain.ReportImageKey, gen int64, image []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[key.UserID] != gen {
		return false, nil
	}
	m.Images[key.String()] = image
	return true, nil
}

func (m *MockReportCache) Invalidate(_ context.Context, userID int64, year, month int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations = append(m.Invalidations, fmt.Sprintf("%d:%d:%d", userID, year, month))
	m.generations[userID]++
	return nil
}

// MockBackupExporter writes canned CSV per table. Each ExportAll call reads from a copy of
// Tables taken when the call starts.
type MockBackupExporter struct {
	Tables    map[string]string
	ExportErr error
	// AfterTable runs after each table is written, while the export is still open
	AfterTable func(table string)
	Calls      int
}

func (m *MockBackupExporter) ExportAll(_ context.Context, writerFor func(table string) io.Writer) (map[string]int64, error) {
	m.Calls++
	if m.ExportErr != nil {
		return nil, m.ExportErr
	}

	snapshot := make(map[string]string, len(m.Tables))
	for table, csv := range m.Tables {
		snapshot[table] = csv
	}

	rows := make(map[string]int64, len(domain.BackupTables))
	for _, table := range domain.BackupTables {
		csv, ok := snapshot[table]
		if !ok {
			return nil, fmt.Errorf("export %q: unknown table", table)
		}
		if _, err := io.WriteString(writerFor(table), csv); err != nil {
			return nil, err
		}
		rows[table] = int64(strings.Count(csv, "\n") - 1)
		if m.AfterTable != nil {
			m.AfterTable(table)
		}
	}
	return rows, nil
}

// MockBackupStorage keeps uploaded objects in memory
type MockBackupStorage struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	UploadErr error
}

// NewMockBackupStorage creates a new MockBackupStorage
func NewMockBackupStorage() *MockBackupStorage {
	return &MockBackupStorage{Objects: make(map[string][]byte)}
}

func (m *MockBackupStorage) Upload(_ context.Context, key string, data io.Reader, _ string, _ int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = buf.Bytes()
	return key, nil
}

func (m *MockBackupStorage) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}
