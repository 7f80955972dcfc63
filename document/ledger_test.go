package document

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentStore struct {
	nextID   int
	payments map[int]Payment

	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{nextID: 1, payments: map[int]Payment{}}
}

func (s *fakePaymentStore) ListPayments(_ context.Context, documentID int) ([]Payment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Payment
	for _, p := range s.payments {
		if p.DocumentID == documentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakePaymentStore) CreatePayment(_ context.Context, p Payment) (Payment, error) {
	if s.createErr != nil {
		return Payment{}, s.createErr
	}
	p.ID = s.nextID
	s.nextID++
	s.payments[p.ID] = p
	return p, nil
}

func (s *fakePaymentStore) UpdatePayment(_ context.Context, p Payment) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.payments[p.ID]; !ok {
		return errors.New("payment not found")
	}
	s.payments[p.ID] = p
	return nil
}

func (s *fakePaymentStore) DeletePayment(_ context.Context, id int) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.payments, id)
	return nil
}

type fakeConfirmer struct {
	answer bool
	err    error
	asked  int
}

func (c *fakeConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	c.asked++
	return c.answer, c.err
}

func payForm(date, method, amount string) PaymentForm {
	return PaymentForm{Date: date, Method: method, Amount: amount}
}

func TestLedgerBalanceRecomputation(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("1000.00"))
	require.NoError(t, l.Load(context.Background(), store))
	assert.True(t, l.Balance().Equal(dec("1000.00")))

	p, err := l.Submit(context.Background(), store, payForm("2026-08-01", "pix", "600.00"))
	require.NoError(t, err)
	assert.True(t, l.Balance().Equal(dec("400.00")), "got %s", l.Balance())

	_, err = l.Submit(context.Background(), store, payForm("2026-08-05", "cash", "150.00"))
	require.NoError(t, err)
	assert.True(t, l.Balance().Equal(dec("250.00")))

	conf := &fakeConfirmer{answer: true}
	require.NoError(t, l.Delete(context.Background(), store, conf, p))
	assert.True(t, l.Balance().Equal(dec("850.00")))
	assert.Equal(t, 1, conf.asked)
}

// The worked example from the original system: total 1000, pay 600, reject
// 450, pay 400, reject anything further.
func TestLedgerNoOverpaymentScenario(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(3, dec("1000.00"))
	require.NoError(t, l.Load(context.Background(), store))

	_, err := l.Submit(context.Background(), store, payForm("2026-08-01", "transfer", "600.00"))
	require.NoError(t, err)
	assert.True(t, l.Balance().Equal(dec("400.00")))

	_, err = l.Submit(context.Background(), store, payForm("2026-08-02", "transfer", "450.00"))
	assert.ErrorIs(t, err, ErrOverpayment)
	assert.Len(t, l.Payments, 1, "a rejected payment must not be created")

	_, err = l.Submit(context.Background(), store, payForm("2026-08-03", "transfer", "400.00"))
	require.NoError(t, err)
	assert.True(t, l.Balance().IsZero())

	_, err = l.Submit(context.Background(), store, payForm("2026-08-04", "cash", "0.01"))
	assert.ErrorIs(t, err, ErrOverpayment)
}

func TestLedgerToleranceAbsorbsDrift(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("100.00"))
	require.NoError(t, l.Load(context.Background(), store))

	// Within the 0.001 tolerance.
	_, err := l.Submit(context.Background(), store, payForm("2026-08-01", "cash", "100.0009"))
	assert.NoError(t, err)

	store2 := newFakePaymentStore()
	l2 := NewLedger(2, dec("100.00"))
	require.NoError(t, l2.Load(context.Background(), store2))
	_, err = l2.Submit(context.Background(), store2, payForm("2026-08-01", "cash", "100.002"))
	assert.ErrorIs(t, err, ErrOverpayment)
}

func TestLedgerSubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		form PaymentForm
	}{
		{"missing date", payForm("", "cash", "10")},
		{"missing method", payForm("2026-08-01", "", "10")},
		{"unknown method", payForm("2026-08-01", "barter", "10")},
		{"zero amount", payForm("2026-08-01", "cash", "0")},
		{"negative amount", payForm("2026-08-01", "cash", "-5")},
		{"garbage amount", payForm("2026-08-01", "cash", "ten")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakePaymentStore()
			l := NewLedger(1, dec("100"))
			require.NoError(t, l.Load(context.Background(), store))
			_, err := l.Submit(context.Background(), store, tt.form)
			assert.Error(t, err)
			assert.Empty(t, store.payments)
		})
	}
}

// Editing a payment gives its old amount back before re-checking, so a
// payment can be corrected without deleting it first.
func TestLedgerEditGivesBackOldAmount(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("1000.00"))
	require.NoError(t, l.Load(context.Background(), store))

	p, err := l.Submit(context.Background(), store, payForm("2026-08-01", "pix", "800.00"))
	require.NoError(t, err)

	// Raising 800 to 1000 is fine: effective balance is 200 + 800.
	form := l.EditForm(p)
	form.Amount = "1000.00"
	_, err = l.Submit(context.Background(), store, form)
	require.NoError(t, err)
	assert.True(t, l.Balance().IsZero())

	// Raising beyond the total is still rejected.
	form = l.EditForm(l.Payments[0])
	form.Amount = "1000.01"
	_, err = l.Submit(context.Background(), store, form)
	assert.ErrorIs(t, err, ErrOverpayment)
	assert.True(t, store.payments[p.ID].Amount.Equal(dec("1000.00")), "rejected edit must not persist")
}

func TestLedgerEditComma(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("500"))
	require.NoError(t, l.Load(context.Background(), store))
	_, err := l.Submit(context.Background(), store, payForm("2026-08-01", "cash", "499,99"))
	require.NoError(t, err)
	assert.True(t, l.Balance().Equal(dec("0.01")))
}

func TestLedgerNewPaymentFormPrefill(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("250.00"))
	require.NoError(t, l.Load(context.Background(), store))

	assert.Equal(t, "250.00", l.NewPaymentForm().Amount)

	_, err := l.Submit(context.Background(), store, payForm("2026-08-01", "cash", "250"))
	require.NoError(t, err)
	assert.Empty(t, l.NewPaymentForm().Amount, "no prefill once the balance is settled")
}

func TestLedgerSubmitFailureKeepsList(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("100"))
	require.NoError(t, l.Load(context.Background(), store))

	store.createErr = errors.New("connection reset")
	_, err := l.Submit(context.Background(), store, payForm("2026-08-01", "cash", "50"))
	assert.EqualError(t, err, "connection reset")
	assert.Empty(t, l.Payments)
}

func TestLedgerDeleteRequiresConfirmation(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("100"))
	require.NoError(t, l.Load(context.Background(), store))
	p, err := l.Submit(context.Background(), store, payForm("2026-08-01", "cash", "50"))
	require.NoError(t, err)

	err = l.Delete(context.Background(), store, &fakeConfirmer{answer: false}, p)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Len(t, l.Payments, 1)
	assert.Len(t, store.payments, 1)

	store.deleteErr = errors.New("permission denied")
	err = l.Delete(context.Background(), store, &fakeConfirmer{answer: true}, p)
	assert.EqualError(t, err, "permission denied")
	assert.Len(t, l.Payments, 1, "a failed delete leaves the list unchanged")

	store.deleteErr = nil
	require.NoError(t, l.Delete(context.Background(), store, &fakeConfirmer{answer: true}, p))
	assert.Empty(t, l.Payments)
	assert.True(t, l.Balance().Equal(dec("100")))
}

func TestLedgerPaymentsNewestFirst(t *testing.T) {
	store := newFakePaymentStore()
	l := NewLedger(1, dec("300"))
	require.NoError(t, l.Load(context.Background(), store))
	_, err := l.Submit(context.Background(), store, payForm("2026-08-01", "cash", "100"))
	require.NoError(t, err)
	_, err = l.Submit(context.Background(), store, payForm("2026-08-02", "pix", "100"))
	require.NoError(t, err)

	require.Len(t, l.Payments, 2)
	assert.Equal(t, "2026-08-02", l.Payments[0].Date)
}
