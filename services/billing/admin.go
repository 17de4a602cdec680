package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agencyhub/database"
	"agencyhub/models"
	"agencyhub/utils"

	"go.uber.org/zap"
)

// UpdateInvoiceStatus applies a manual back-office status: Overdue or Cancelled. Paid and
// Cancelled invoices are final.
func (s *DefaultBillingService) UpdateInvoiceStatus(ctx context.Context, invoiceID string, status models.InvoiceStatus) (*models.Invoice, error) {
	if status != models.InvoiceOverdue && status != models.InvoiceCancelled {
		return nil, validationErrorf("status must be %s or %s", models.InvoiceOverdue, models.InvoiceCancelled)
	}

	unlock, err := s.Locker.Lock(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, utils.ErrLockTimeout) {
			return nil, ErrConcurrentUpdate
		}
		return nil, persistence("lock invoice", err)
	}
	defer unlock()

	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoicePaid || invoice.Status == models.InvoiceCancelled {
		return nil, fmt.Errorf("%w: invoice is %s", ErrInvalidTransition, invoice.Status)
	}
	if invoice.Status == status {
		return invoice, nil
	}

	now := s.now()
	if err := s.Invoices.UpdateStatus(ctx, invoiceID, status, invoice.Version, now); err != nil {
		switch {
		case errors.Is(err, database.ErrVersionConflict):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrInvoiceNotFound
		default:
			return nil, persistence("update invoice status", err)
		}
	}

	s.log().Info("invoice status changed",
		zap.String("invoiceId", invoiceID),
		zap.String("from", string(invoice.Status)),
		zap.String("to", string(status)))

	invoice.Status = status
	invoice.UpdatedAt = now
	invoice.Version++
	return invoice, nil
}

// MarkOverdueInvoices moves unpaid and partially paid invoices past their due date to Overdue.
func (s *DefaultBillingService) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.Invoices.MarkOverdue(ctx, now)
	if err != nil {
		return 0, persistence("mark overdue invoices", err)
	}
	if n > 0 {
		s.log().Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}
