package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the closed set of ledger directions. Strings arrive at
// the edge and are parsed once into this type; the ledger core never sees
// raw strings for kind.
type TransactionKind string

const (
	KindExpense TransactionKind = "EXPENSE"
	KindIncome  TransactionKind = "INCOME"
)

func (k TransactionKind) valid() bool {
	return k == KindExpense || k == KindIncome
}

// PaymentMethod is the closed set of settlement channels a transaction was
// made through.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodDebitCard     PaymentMethod = "DEBIT_CARD"
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobilePayment PaymentMethod = "MOBILE_PAYMENT"
	PaymentMethodPaypal       PaymentMethod = "PAYPAL"
	PaymentMethodCrypto        PaymentMethod = "CRYPTO"
	PaymentMethodOther         PaymentMethod = "OTHER"
)

func (p PaymentMethod) valid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodDebitCard, PaymentMethodCreditCard,
		PaymentMethodBankTransfer, PaymentMethodMobilePayment, PaymentMethodPaypal,
		PaymentMethodCrypto, PaymentMethodOther:
		return true
	}
	return false
}

var minLedgerDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Transaction is a single ledger row: a signed financial event owned by one
// owner, carrying the materialized running balance as of its position in
// the owner's ordering key.
type Transaction struct {
	ID              int32           `json:"id"`
	OwnerID         int32           `json:"ownerId"`
	Kind            TransactionKind `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	SignedAmount    decimal.Decimal `json:"signedAmount"`
	CumulativeDelta decimal.Decimal `json:"cumulativeDelta"`
	Date            time.Time       `json:"date"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Subject         string          `json:"subject"`
	Notes           *string         `json:"notes,omitempty"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	CategoryID      *int32          `json:"categoryId,omitempty"`
	GroupID         *int32          `json:"groupId,omitempty"`
}

// NewTransactionInput is the caller-supplied field set for a create or
// update; CumulativeDelta, CreatedAt and UpdatedAt are never accepted from
// the caller, and SignedAmount is always derived.
type NewTransactionInput struct {
	OwnerID       int32
	Kind          TransactionKind
	Amount        decimal.Decimal
	Date          time.Time
	Subject       string
	Notes         *string
	PaymentMethod PaymentMethod
	CategoryID    *int32
	GroupID       *int32
}

// NewTransaction validates input and derives SignedAmount from (Kind,
// Amount). CumulativeDelta is left at the sentinel zero the store
// overwrites; ID, CreatedAt, and UpdatedAt are assigned by the store.
func NewTransaction(in NewTransactionInput, now func() time.Time) (*Transaction, error) {
	var errs []error

	if in.OwnerID <= 0 {
		errs = append(errs, ErrInvalidOwnerID)
	}
	if !in.Kind.valid() {
		errs = append(errs, ErrInvalidKind)
	}
	if in.Amount.Sign() <= 0 {
		errs = append(errs, ErrInvalidAmount)
	}

	maxDate := now().AddDate(1, 0, 0)
	if in.Date.Before(minLedgerDate) || in.Date.After(maxDate) {
		errs = append(errs, ErrInvalidDate)
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" || len(subject) > MaxTransactionSubjectLen {
		errs = append(errs, ErrInvalidSubject)
	}

	if !in.PaymentMethod.valid() {
		errs = append(errs, ErrInvalidPaymentMethod)
	}

	if in.CategoryID != nil && *in.CategoryID <= 0 {
		errs = append(errs, ErrInvalidCategoryID)
	}
	if in.GroupID != nil && *in.GroupID <= 0 {
		errs = append(errs, ErrInvalidGroupID)
	}

	if len(errs) > 0 {
		return nil, &ValidationErrors{Errs: errs}
	}

	var notes *string
	if in.Notes != nil {
		if trimmed := strings.TrimSpace(*in.Notes); trimmed != "" {
			notes = &trimmed
		}
	}

	signed := in.Amount
	if in.Kind == KindExpense {
		signed = in.Amount.Neg()
	}

	return &Transaction{
		OwnerID:         in.OwnerID,
		Kind:            in.Kind,
		Amount:          in.Amount.Round(2),
		SignedAmount:    signed.Round(2),
		CumulativeDelta: decimal.Zero,
		Date:            in.Date,
		Subject:         subject,
		Notes:           notes,
		PaymentMethod:   in.PaymentMethod,
		CategoryID:      in.CategoryID,
		GroupID:         in.GroupID,
	}, nil
}

// QueryOptions are the optional filters and sort controls list_by_owner_*
// operations recognize. All fields are optional; the zero value matches
// everything and sorts by (date, created_at) descending, per the
// sort_descending default of true.
type QueryOptions struct {
	Subject        *string
	CategoryIDs    []int32
	PaymentMethods []PaymentMethod
	Kind           *TransactionKind
	DateFrom       *time.Time
	DateTo         *time.Time
	SortBy         SortField
	SortAscending  bool
}

// SortField is the secondary sort key list_by_owner_filtered accepts; the
// primary key is always date.
type SortField string

const (
	SortByDate          SortField = ""
	SortBySubject       SortField = "subject"
	SortByPaymentMethod SortField = "payment_method"
	SortByCategory      SortField = "category"
	SortByAmount        SortField = "amount"
)

// Summary is the aggregate carried alongside every listing, computed from
// the returned slice rather than the whole ledger.
type Summary struct {
	TotalCount     int
	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	NetChange      decimal.Decimal
	IncomeCount    int
	ExpenseCount   int
}

// Summarize computes a Summary over rows, matching the Summary returned
// with listings (§4.3).
func Summarize(rows []*Transaction) Summary {
	s := Summary{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, r := range rows {
		s.TotalCount++
		switch r.Kind {
		case KindIncome:
			s.TotalIncome = s.TotalIncome.Add(r.Amount)
			s.IncomeCount++
		case KindExpense:
			s.TotalExpenses = s.TotalExpenses.Add(r.Amount)
			s.ExpenseCount++
		}
	}
	s.NetChange = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// Balance is the derived (initial_balance, cumulative_delta, current_balance)
// triple C4 returns.
type Balance struct {
	InitialBalance  decimal.Decimal
	CumulativeDelta decimal.Decimal
	CurrentBalance  decimal.Decimal
}
