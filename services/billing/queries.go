package billing

import (
	"context"
	"errors"

	"agencyhub/database"
	"agencyhub/models"
)

func (s *DefaultBillingService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.Invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, persistence("fetch invoice", err)
	}
	return invoice, nil
}

func (s *DefaultBillingService) GetInvoiceByBooking(ctx context.Context, bookingID string) (*models.Invoice, error) {
	invoice, err := s.Invoices.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, persistence("fetch invoice by booking", err)
	}
	return invoice, nil
}

func (s *DefaultBillingService) ListInvoicesByClient(ctx context.Context, clientID string) ([]models.Invoice, error) {
	invoices, err := s.Invoices.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, persistence("list client invoices", err)
	}
	return invoices, nil
}

func (s *DefaultBillingService) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	invoices, err := s.Invoices.List(ctx)
	if err != nil {
		return nil, persistence("list invoices", err)
	}
	return invoices, nil
}

// ListPayments returns the payment log of an invoice in recording order.
func (s *DefaultBillingService) ListPayments(ctx context.Context, invoiceID string) ([]models.PaymentRecord, error) {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Payments == nil {
		return []models.PaymentRecord{}, nil
	}
	return invoice.Payments, nil
}
