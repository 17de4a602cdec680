package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agencyhub/database"
	"agencyhub/models"
	"agencyhub/services/pricing"
	"agencyhub/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxWriteAttempts bounds the read-compute-write retries after a version conflict.
const maxWriteAttempts = 3

// RecordPayment applies one payment to an invoice, updates milestone and invoice status and
// records the outcome on the originating booking's timeline. Writers of the same invoice are
// serialised by the invoice lock and the write itself is a version-checked swap.
func (s *DefaultBillingService) RecordPayment(ctx context.Context, invoiceID string, input models.PaymentInput) (*models.Invoice, error) {
	if err := validatePaymentInput(&input); err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, utils.ErrLockTimeout) {
			return nil, ErrConcurrentUpdate
		}
		return nil, persistence("lock invoice", err)
	}
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		invoice, err := s.recordPaymentOnce(ctx, invoiceID, input)
		if errors.Is(err, database.ErrVersionConflict) {
			s.log().Debug("invoice version conflict, retrying",
				zap.String("invoiceId", invoiceID), zap.Int("attempt", attempt))
			continue
		}
		return invoice, err
	}
	return nil, ErrConcurrentUpdate
}

func (s *DefaultBillingService) recordPaymentOnce(ctx context.Context, invoiceID string, input models.PaymentInput) (*models.Invoice, error) {
	var (
		result     *models.Invoice
		payment    models.PaymentRecord
		replayed   bool
		cascadeErr error
	)

	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.Invoices.GetByID(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrInvoiceNotFound
			}
			return persistence("fetch invoice", err)
		}

		if _, ok := invoice.FindPaymentByKey(input.IdempotencyKey); ok {
			result, replayed = invoice, true
			return nil
		}
		if invoice.Status == models.InvoiceCancelled {
			return ErrInvoiceCancelled
		}

		now := s.now()
		payment = newPaymentRecord(input, now)
		expectedVersion := invoice.Version

		outcome, err := applyPayment(invoice, payment, now)
		if err != nil {
			return err
		}

		if err := s.Invoices.ApplyPayment(ctx, invoice, payment, expectedVersion); err != nil {
			switch {
			case errors.Is(err, database.ErrVersionConflict):
				return err
			case errors.Is(err, database.ErrNotFound):
				return ErrInvoiceNotFound
			default:
				return persistence("save payment", err)
			}
		}
		invoice.Payments = append(invoice.Payments, payment)
		invoice.Version = expectedVersion + 1
		result = invoice

		if err := s.cascadeToBooking(ctx, invoice, outcome, now); err != nil {
			if s.Tx.Atomic() {
				return persistence("update booking", err)
			}
			cascadeErr = err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		s.log().Info("payment replay ignored",
			zap.String("invoiceId", invoiceID), zap.String("idempotencyKey", input.IdempotencyKey))
		return result, nil
	}
	if cascadeErr != nil {
		s.log().Warn("payment recorded but booking timeline update failed",
			zap.String("invoiceId", result.ID), zap.String("bookingId", result.BookingID), zap.Error(cascadeErr))
	}
	s.log().Info("payment recorded",
		zap.String("invoiceId", result.ID),
		zap.String("paymentId", payment.ID),
		zap.Float64("amount", payment.Amount),
		zap.String("method", string(payment.Method)),
		zap.String("status", string(result.Status)))
	return result, nil
}

// cascadeToBooking mirrors a full payment, or a completed milestone of a partially paid
// invoice, onto the booking timeline. "Payment Received" is written once, by the payment that
// turns the invoice Paid; a rounding top-up accepted on an already Paid invoice adds no entry.
// A booking that no longer exists is skipped.
func (s *DefaultBillingService) cascadeToBooking(ctx context.Context, invoice *models.Invoice, outcome paymentOutcome, now time.Time) error {
	var (
		entry  models.TimelineEntry
		status string
	)
	switch {
	case invoice.Status == models.InvoicePaid && outcome.becamePaid:
		entry = models.TimelineEntry{
			Phase:       "Payment Received",
			Status:      models.TimelineStatusCompleted,
			Date:        now,
			Description: fmt.Sprintf("Full payment of %s %s received", invoice.Currency, pricing.FormatAmount(invoice.TotalAmount)),
		}
		status = models.BookingStatusPaid
	case invoice.Status == models.InvoicePartial && outcome.completedMilestone != nil:
		m := outcome.completedMilestone
		entry = models.TimelineEntry{
			Phase:       m.Name + " - Payment Received",
			Status:      models.TimelineStatusCompleted,
			Date:        now,
			Description: fmt.Sprintf("Milestone payment of %s %s received", invoice.Currency, pricing.FormatAmount(m.Amount)),
		}
	default:
		return nil
	}

	err := s.Bookings.AppendTimeline(ctx, invoice.BookingID, entry, status)
	if errors.Is(err, database.ErrNotFound) {
		s.log().Warn("booking for invoice not found, timeline not updated",
			zap.String("invoiceId", invoice.ID), zap.String("bookingId", invoice.BookingID))
		return nil
	}
	return err
}

func validatePaymentInput(input *models.PaymentInput) error {
	input.Method = models.PaymentMethod(strings.TrimSpace(string(input.Method)))
	if input.Amount <= 0 {
		return validationErrorf("amount is required and must be greater than zero")
	}
	if amount := decimal.NewFromFloat(input.Amount); !amount.Equal(amount.Round(2)) {
		return validationErrorf("amount %v has more than two decimal places", input.Amount)
	}
	if input.Method == "" {
		return validationErrorf("payment method is required")
	}
	if !input.Method.Valid() {
		return validationErrorf("unsupported payment method %q", input.Method)
	}
	return nil
}

func newPaymentRecord(input models.PaymentInput, now time.Time) models.PaymentRecord {
	record := models.PaymentRecord{
		ID:             fmt.Sprintf("PAY-%d-%s", now.UnixMilli(), uuid.New().String()[:8]),
		Amount:         input.Amount,
		Method:         input.Method,
		TransactionID:  input.TransactionID,
		MilestoneID:    input.MilestoneID,
		PaymentDate:    now,
		Notes:          input.Notes,
		VerifiedBy:     input.VerifiedBy,
		IdempotencyKey: input.IdempotencyKey,
	}
	if input.VerifiedBy != "" {
		verifiedAt := now
		record.VerificationDate = &verifiedAt
	}
	return record
}
