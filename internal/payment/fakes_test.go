package payment_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/audit"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	reservationmodel "github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	"github.com/frahmantamala/hotel-billing/internal/core/events"
	paymentpkg "github.com/frahmantamala/hotel-billing/internal/payment"
	"github.com/frahmantamala/hotel-billing/internal/reservation"
	"github.com/shopspring/decimal"
)

// memDB is an in-memory stand-in for the payment, reservation, audit and
// user tables. Every read hands out copies so callers cannot mutate rows
// without going through Update.
type memDB struct {
	mu           sync.Mutex
	nextID       int64
	payments     map[int64]*payment.Payment
	reservations map[int64]*reservationmodel.Reservation
	audit        []*audit.Entry
	users        map[int64]bool

	updateErr error
	appendErr error
	calls     int
}

func newMemDB() *memDB {
	return &memDB{
		payments:     make(map[int64]*payment.Payment),
		reservations: make(map[int64]*reservationmodel.Reservation),
		users:        make(map[int64]bool),
	}
}

func (db *memDB) addReservation(id int64, total string) {
	db.reservations[id] = &reservationmodel.Reservation{
		ID:            id,
		ClientID:      id,
		Client:        &reservationmodel.Client{ID: id, Name: "Client", Email: "client@example.com"},
		TotalPrice:    decimal.RequireFromString(total),
		PaymentStatus: reservationmodel.PaymentStatusPending,
	}
}

func (db *memDB) addPayment(p *payment.Payment) *payment.Payment {
	db.nextID++
	p.ID = db.nextID
	cp := *p
	db.payments[p.ID] = &cp
	return p
}

func (db *memDB) payment(id int64) *payment.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *db.payments[id]
	return &cp
}

func (db *memDB) status(reservationID int64) string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.reservations[reservationID].PaymentStatus
}

func (db *memDB) auditEntries() []*audit.Entry {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]*audit.Entry(nil), db.audit...)
}

func (db *memDB) snapshot() *memDB {
	snap := newMemDB()
	snap.nextID = db.nextID
	for id, p := range db.payments {
		cp := *p
		snap.payments[id] = &cp
	}
	for id, r := range db.reservations {
		cp := *r
		snap.reservations[id] = &cp
	}
	snap.audit = append(snap.audit, db.audit...)
	return snap
}

func (db *memDB) restore(snap *memDB) {
	db.nextID = snap.nextID
	db.payments = snap.payments
	db.reservations = snap.reservations
	db.audit = snap.audit
}

func (db *memDB) stores() paymentpkg.Stores {
	return paymentpkg.Stores{
		Payments:     memPayments{db},
		Reservations: memReservations{db},
		Audit:        memAudit{db},
		Users:        memUsers{db},
	}
}

type memPayments struct{ db *memDB }

func (m memPayments) CreateBatch(_ context.Context, ps []*payment.Payment) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.calls++
	for _, p := range ps {
		m.db.addPayment(p)
	}
	return nil
}

func (m memPayments) GetByID(_ context.Context, id int64) (*payment.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.calls++
	p, ok := m.db.payments[id]
	if !ok {
		return nil, paymentpkg.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memPayments) GetByTransactionReference(_ context.Context, reference string) (*payment.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.calls++
	var found *payment.Payment
	for _, p := range m.db.payments {
		if p.TransactionReference != nil && *p.TransactionReference == reference {
			if found == nil || p.ID > found.ID {
				found = p
			}
		}
	}
	if found == nil {
		return nil, paymentpkg.ErrPaymentNotFound
	}
	cp := *found
	return &cp, nil
}

func (m memPayments) GetByReservationID(_ context.Context, reservationID int64) ([]*payment.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.calls++
	var out []*payment.Payment
	for _, p := range m.db.payments {
		if p.ReservationID == reservationID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memPayments) FindPreviousInstallment(_ context.Context, reservationID int64, installmentNumber int) (*payment.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, p := range m.db.payments {
		if p.ReservationID == reservationID && p.InstallmentNumber != nil && *p.InstallmentNumber == installmentNumber-1 {
			cp := *p
			return &cp, nil
		}
	}
	return nil, paymentpkg.ErrPaymentNotFound
}

func (m memPayments) SumAmount(_ context.Context, reservationID int64, states ...string) (decimal.Decimal, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	sum := decimal.Zero
	for _, p := range m.db.payments {
		if p.ReservationID == reservationID && contains(states, p.State) {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (m memPayments) CountByState(_ context.Context, reservationID int64, excludeID int64, states ...string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, p := range m.db.payments {
		if p.ReservationID == reservationID && p.ID != excludeID && contains(states, p.State) {
			n++
		}
	}
	return n, nil
}

func (m memPayments) Update(_ context.Context, id int64, patch map[string]interface{}) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.calls++
	if m.db.updateErr != nil {
		return m.db.updateErr
	}
	p, ok := m.db.payments[id]
	if !ok {
		return paymentpkg.ErrPaymentNotFound
	}
	for k, v := range patch {
		switch k {
		case "state":
			p.State = v.(string)
		case "amount":
			p.Amount = v.(decimal.Decimal)
		case "method":
			p.Method = v.(string)
		case "transaction_reference":
			ref := v.(string)
			p.TransactionReference = &ref
		case "transaction_date":
			p.TransactionDate = v.(time.Time)
		case "due_date":
			due := v.(time.Time)
			p.DueDate = &due
		case "notes":
			notes := v.(string)
			p.Notes = &notes
		}
	}
	return nil
}

type memReservations struct{ db *memDB }

func (m memReservations) GetByID(_ context.Context, id int64) (*reservationmodel.Reservation, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.calls++
	r, ok := m.db.reservations[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m memReservations) UpdatePaymentStatus(_ context.Context, id int64, status string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.reservations[id]
	if !ok {
		return reservation.ErrNotFound
	}
	r.PaymentStatus = status
	return nil
}

type memAudit struct{ db *memDB }

func (m memAudit) Append(_ context.Context, entry *audit.Entry) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.appendErr != nil {
		return m.db.appendErr
	}
	m.db.audit = append(m.db.audit, entry)
	return nil
}

func (m memAudit) ListByResource(_ context.Context, resourceType string, resourceID int64) ([]*audit.Entry, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []*audit.Entry
	for _, e := range m.db.audit {
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memUsers struct{ db *memDB }

func (m memUsers) Exists(_ context.Context, id int64) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return m.db.users[id], nil
}

// memTransactor rolls the whole memDB back when fn fails.
type memTransactor struct{ db *memDB }

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores paymentpkg.Stores) error) error {
	t.db.mu.Lock()
	snap := t.db.snapshot()
	t.db.mu.Unlock()

	if err := fn(ctx, t.db.stores()); err != nil {
		t.db.mu.Lock()
		t.db.restore(snap)
		t.db.mu.Unlock()
		return err
	}
	return nil
}

type fakeReports struct {
	completed []paymentpkg.ReportTransaction
	overdue   []paymentpkg.OverduePayment
	err       error
	calls     int
	from, to  time.Time
	asOf      time.Time
}

func (f *fakeReports) CompletedPaymentsBetween(_ context.Context, from, to time.Time) ([]paymentpkg.ReportTransaction, error) {
	f.calls++
	f.from, f.to = from, to
	return f.completed, f.err
}

func (f *fakeReports) OverduePayments(_ context.Context, asOf time.Time) ([]paymentpkg.OverduePayment, error) {
	f.calls++
	f.asOf = asOf
	return f.overdue, f.err
}

type sentMail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	sent []sentMail
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var errDatabase = errors.New("database unavailable")

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
