package memory

import (
	"context"
	"sort"
	"time"

	"agencyhub/database"
	"agencyhub/models"
)

// InvoiceRepo is the in-memory InvoiceRepository.
type InvoiceRepo struct{ s *Store }

func (r *InvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.invoices[invoice.ID]; ok {
		return database.ErrDuplicateKey
	}
	for _, existing := range r.s.invoices {
		if existing.BookingID == invoice.BookingID {
			return database.ErrDuplicateKey
		}
	}
	journalFrom(ctx).recordInvoice(r.s, invoice.ID)
	r.s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*models.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (r *InvoiceRepo) GetByBookingID(_ context.Context, bookingID string) (*models.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, inv := range r.s.invoices {
		if inv.BookingID == bookingID {
			return cloneInvoice(inv), nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *InvoiceRepo) ListByClientID(_ context.Context, clientID string) ([]models.Invoice, error) {
	return r.list(func(inv *models.Invoice) bool { return inv.ClientID == clientID }), nil
}

func (r *InvoiceRepo) List(_ context.Context) ([]models.Invoice, error) {
	return r.list(func(*models.Invoice) bool { return true }), nil
}

func (r *InvoiceRepo) list(keep func(*models.Invoice) bool) []models.Invoice {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Invoice{}
	for _, inv := range r.s.invoices {
		if keep(inv) {
			out = append(out, *cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *InvoiceRepo) ApplyPayment(ctx context.Context, invoice *models.Invoice, payment models.PaymentRecord, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.invoices[invoice.ID]
	if !ok {
		return database.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return database.ErrVersionConflict
	}

	next := cloneInvoice(stored)
	next.PaidAmount = invoice.PaidAmount
	next.RemainingAmount = invoice.RemainingAmount
	next.Status = invoice.Status
	next.Milestones = cloneInvoice(invoice).Milestones
	next.UpdatedAt = invoice.UpdatedAt
	if invoice.PaidDate != nil {
		next.PaidDate = cloneTime(invoice.PaidDate)
	}
	payment.VerificationDate = cloneTime(payment.VerificationDate)
	next.Payments = append(next.Payments, payment)
	next.Version++
	journalFrom(ctx).recordInvoice(r.s, invoice.ID)
	r.s.invoices[invoice.ID] = next
	return nil
}

func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus, expectedVersion int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.invoices[id]
	if !ok {
		return database.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return database.ErrVersionConflict
	}
	journalFrom(ctx).recordInvoice(r.s, id)
	stored.Status = status
	stored.UpdatedAt = at
	stored.Version++
	return nil
}

func (r *InvoiceRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j := journalFrom(ctx)
	var n int64
	for id, inv := range r.s.invoices {
		if inv.DueDate.Before(now) && (inv.Status == models.InvoiceUnpaid || inv.Status == models.InvoicePartial) {
			j.recordInvoice(r.s, id)
			inv.Status = models.InvoiceOverdue
			inv.UpdatedAt = now
			inv.Version++
			n++
		}
	}
	return n, nil
}
