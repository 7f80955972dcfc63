package document

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrOverpayment          = errors.New("payment amount exceeds the outstanding balance")
	ErrNotConfirmed         = errors.New("deletion was not confirmed")
	ErrUnknownMethod        = errors.New("unknown payment method")
	ErrMissingDate          = errors.New("payment date is required")
	ErrInvalidPaymentAmount = errors.New("payment amount must be greater than zero")
)

// Methods accepted for payments, matching the methods CHECK constraint.
var PaymentMethods = []string{"cash", "pix", "credit_card", "debit_card", "transfer", "check"}

// Payment is one partial settlement against a persisted document.
type Payment struct {
	ID         int
	DocumentID int
	Date       string
	Method     string
	Amount     decimal.Decimal
	Notes      string
}

// PaymentForm carries user input for a payment being created or edited.
// ID is zero for a new payment.
type PaymentForm struct {
	ID     int
	Date   string
	Method string
	Amount string
	Notes  string
}

// PaymentStore is the external collaborator that persists payments for one
// kind of document.
type PaymentStore interface {
	ListPayments(ctx context.Context, documentID int) ([]Payment, error)
	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	UpdatePayment(ctx context.Context, p Payment) error
	DeletePayment(ctx context.Context, paymentID int) error
}

// Confirmer gates destructive operations behind an explicit confirmation.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Ledger manages the payments of one persisted document and enforces that
// cumulative payments never exceed the document total.
type Ledger struct {
	DocumentID int
	Total      decimal.Decimal
	Payments   []Payment

	submitting bool
}

// NewLedger returns a ledger for the document with the given persisted total.
func NewLedger(documentID int, total decimal.Decimal) *Ledger {
	return &Ledger{DocumentID: documentID, Total: total}
}

// Load fetches the document's payments (newest first) from the store.
func (l *Ledger) Load(ctx context.Context, store PaymentStore) error {
	payments, err := store.ListPayments(ctx, l.DocumentID)
	if err != nil {
		return err
	}
	l.Payments = payments
	return nil
}

// TotalPaid sums the loaded payment amounts.
func (l *Ledger) TotalPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range l.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Balance is the document total minus everything already paid.
func (l *Ledger) Balance() decimal.Decimal {
	return l.Total.Sub(l.TotalPaid())
}

// NewPaymentForm returns a fresh form with the amount prefilled to the
// current balance when positive. The prefill is a convenience, not a cap.
func (l *Ledger) NewPaymentForm() PaymentForm {
	f := PaymentForm{}
	if b := l.Balance(); b.Sign() > 0 {
		f.Amount = b.String()
	}
	return f
}

// EditForm loads an existing payment into a form for correction.
func (l *Ledger) EditForm(p Payment) PaymentForm {
	return PaymentForm{ID: p.ID, Date: p.Date, Method: p.Method, Amount: p.Amount.String(), Notes: p.Notes}
}

func validMethod(m string) bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Submit validates the form and creates or updates the payment. When editing,
// the edited payment's previous amount is given back to the balance before
// the overpayment check, so a payment can be corrected in place. On success
// the payment list is reloaded; on failure nothing is persisted and the form
// remains valid for correction.
func (l *Ledger) Submit(ctx context.Context, store PaymentStore, form PaymentForm) (Payment, error) {
	if l.submitting {
		return Payment{}, ErrSubmitInFlight
	}
	l.submitting = true
	defer func() { l.submitting = false }()

	if form.Date == "" {
		return Payment{}, ErrMissingDate
	}
	if !validMethod(form.Method) {
		return Payment{}, ErrUnknownMethod
	}
	amount, err := ParseAmount(form.Amount)
	if err != nil || amount.Sign() <= 0 {
		return Payment{}, ErrInvalidPaymentAmount
	}

	effective := l.Balance()
	if form.ID != 0 {
		for _, p := range l.Payments {
			if p.ID == form.ID {
				effective = effective.Add(p.Amount)
				break
			}
		}
	}
	if amount.GreaterThan(effective.Add(tolerance)) {
		return Payment{}, ErrOverpayment
	}

	p := Payment{
		ID:         form.ID,
		DocumentID: l.DocumentID,
		Date:       form.Date,
		Method:     form.Method,
		Amount:     amount,
		Notes:      form.Notes,
	}
	if form.ID == 0 {
		p, err = store.CreatePayment(ctx, p)
	} else {
		err = store.UpdatePayment(ctx, p)
	}
	if err != nil {
		return Payment{}, err
	}
	if err := l.Load(ctx, store); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// Delete removes a payment after explicit confirmation. On success the local
// list is patched in place rather than reloaded; a declined confirmation or a
// failed delete leaves the list unchanged.
func (l *Ledger) Delete(ctx context.Context, store PaymentStore, confirmer Confirmer, p Payment) error {
	ok, err := confirmer.Confirm(ctx, "delete this payment?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}
	if err := store.DeletePayment(ctx, p.ID); err != nil {
		return err
	}
	for i := range l.Payments {
		if l.Payments[i].ID == p.ID {
			l.Payments = append(l.Payments[:i], l.Payments[i+1:]...)
			break
		}
	}
	return nil
}
