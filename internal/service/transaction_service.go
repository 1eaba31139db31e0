package service

import (
	"time"
	"unicode/utf8"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/util"
	"github.com/shopspring/decimal"
)

// TransactionService handles recording and removing expenses and incomes
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	reportCache     domain.ReportImageCache
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, reportCache domain.ReportImageCache) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		reportCache:     reportCache,
	}
}

// RecordTransactionInput holds the input for recording a transaction
type RecordTransactionInput struct {
	Kind        domain.TransactionKind
	Date        time.Time
	Amount      decimal.Decimal
	Description *string
	CategoryID  *int32
}

// RecordTransaction validates and stores a transaction
func (s *TransactionService) RecordTransaction(userID int64, input RecordTransactionInput) (*domain.Transaction, error) {
	if !input.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	// Validate amount (must be positive at cent precision)
	amount := input.Amount.Round(2)
	if !domain.ValidAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}

	date, err := domain.NormalizeDate(input.Date)
	if err != nil {
		return nil, err
	}

	var description *string
	if input.Description != nil {
		description = util.NormalizeDescription(*input.Description)
		if description != nil && utf8.RuneCountInString(*description) > domain.MaxDescriptionLength {
			return nil, domain.ErrDescriptionTooLong
		}
	}

	switch input.Kind {
	case domain.TransactionKindExpense:
		if input.CategoryID == nil {
			return nil, domain.ErrCategoryRequired
		}
	case domain.TransactionKindIncome:
		if input.CategoryID != nil {
			return nil, domain.ErrIncomeCategory
		}
	}

	created, err := s.transactionRepo.Create(&domain.Transaction{
		UserID:      userID,
		Kind:        input.Kind,
		Date:        date,
		Amount:      amount,
		Description: description,
		CategoryID:  input.CategoryID,
	})
	if err != nil {
		return nil, err
	}

	invalidateReportImages(s.reportCache, userID, date.Year(), int(date.Month()))
	return created, nil
}

// RecordEntry parses a "DD.MM.YY amount description" line and records it as an expense
func (s *TransactionService) RecordEntry(userID int64, text string, categoryID int32, now time.Time) (*domain.Transaction, error) {
	entry, err := util.ParseEntry(text, now)
	if err != nil {
		return nil, err
	}
	return s.RecordTransaction(userID, RecordTransactionInput{
		Kind:        domain.TransactionKindExpense,
		Date:        entry.Date,
		Amount:      entry.Amount,
		Description: entry.Description,
		CategoryID:  &categoryID,
	})
}

// DeleteByDate removes all transactions of a kind on a date. Nothing to delete is not an error.
func (s *TransactionService) DeleteByDate(userID int64, date time.Time, kind domain.TransactionKind) (int64, error) {
	if !kind.Valid() {
		return 0, domain.ErrInvalidKind
	}
	day, err := domain.NormalizeDate(date)
	if err != nil {
		return 0, err
	}

	deleted, err := s.transactionRepo.DeleteByDate(userID, day, kind)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		invalidateReportImages(s.reportCache, userID, day.Year(), int(day.Month()))
	}
	return deleted, nil
}

// DeleteTransaction removes one transaction
func (s *TransactionService) DeleteTransaction(userID int64, id int32) error {
	deleted, err := s.transactionRepo.Delete(userID, id)
	if err != nil {
		return err
	}
	invalidateReportImages(s.reportCache, userID, deleted.Date.Year(), int(deleted.Date.Month()))
	return nil
}

// GetTransaction retrieves one transaction
func (s *TransactionService) GetTransaction(userID int64, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(userID, id)
}

// ListByDate lists transactions of a kind on a date
func (s *TransactionService) ListByDate(userID int64, date time.Time, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	day, err := domain.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	return s.transactionRepo.GetByDate(userID, day, kind)
}

// LastTransactions returns the newest transactions of a kind
func (s *TransactionService) LastTransactions(userID int64, kind domain.TransactionKind, limit int) ([]*domain.Transaction, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	if limit <= 0 {
		limit = domain.DefaultLastLimit
	}
	if limit > domain.MaxLastLimit {
		limit = domain.MaxLastLimit
	}
	return s.transactionRepo.GetLast(userID, kind, int32(limit))
}

// ChangeCategory moves a single expense to another category
func (s *TransactionService) ChangeCategory(userID int64, id int32, categoryID int32) (*domain.Transaction, error) {
	current, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if current.Kind != domain.TransactionKindExpense {
		return nil, domain.ErrNotAnExpense
	}

	updated, err := s.transactionRepo.UpdateCategory(userID, id, categoryID)
	if err != nil {
		return nil, err
	}
	invalidateReportImages(s.reportCache, userID, updated.Date.Year(), int(updated.Date.Month()))
	return updated, nil
}

// Years lists years with recorded data; the current year when there is none
func (s *TransactionService) Years(userID int64, now time.Time) ([]int, error) {
	years, err := s.transactionRepo.GetYears(userID)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return []int{now.Year()}, nil
	}
	return years, nil
}
