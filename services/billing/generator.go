package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agencyhub/database"
	"agencyhub/models"
	"agencyhub/services/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateInvoice creates the invoice for a booking, splitting the package price into one
// milestone per process step of the service, and links the invoice back to the booking.
func (s *DefaultBillingService) GenerateInvoice(ctx context.Context, bookingID, serviceID string) (*models.Invoice, error) {
	bookingID, serviceID = strings.TrimSpace(bookingID), strings.TrimSpace(serviceID)
	if bookingID == "" || serviceID == "" {
		return nil, validationErrorf("bookingId and serviceId are required")
	}

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, persistence("fetch booking", err)
	}
	service, err := s.Services.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, persistence("fetch service", err)
	}

	if _, err := s.Invoices.GetByBookingID(ctx, bookingID); err == nil {
		return nil, ErrInvoiceExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, persistence("check existing invoice", err)
	}

	total := pricing.ParsePriceToNumber(booking.PackagePrice)
	if total <= 0 {
		return nil, validationErrorf("package price %q has no amount", booking.PackagePrice)
	}
	invoice := s.buildInvoice(booking, service, total)

	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Invoices.Create(ctx, invoice); err != nil {
			if errors.Is(err, database.ErrDuplicateKey) {
				return ErrInvoiceExists
			}
			return persistence("create invoice", err)
		}
		if err := s.Bookings.SetInvoiceID(ctx, booking.ID, invoice.ID); err != nil {
			if s.Tx.Atomic() {
				return persistence("link invoice to booking", err)
			}
			s.log().Warn("invoice created but booking link failed",
				zap.String("invoiceId", invoice.ID),
				zap.String("bookingId", booking.ID),
				zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log().Info("invoice generated",
		zap.String("invoiceId", invoice.ID),
		zap.String("invoiceNumber", invoice.InvoiceNumber),
		zap.String("bookingId", booking.ID),
		zap.Float64("totalAmount", invoice.TotalAmount),
		zap.Int("milestones", len(invoice.Milestones)))
	return invoice, nil
}

func (s *DefaultBillingService) buildInvoice(booking *models.Booking, service *models.Service, total float64) *models.Invoice {
	now := s.now()
	milestones := buildMilestones(service.Process, total)

	paymentType := models.PaymentTypeFull
	if len(milestones) > 1 {
		paymentType = models.PaymentTypeMilestone
	}

	serviceName := booking.ServiceTitle
	if serviceName == "" {
		serviceName = service.Title
	}

	return &models.Invoice{
		ID:                 uuid.New().String(),
		InvoiceNumber:      pricing.GenerateInvoiceNumber(now),
		BookingID:          booking.ID,
		ClientID:           booking.ClientID,
		ClientName:         booking.ClientName,
		ClientEmail:        booking.ClientEmail,
		ClientPhone:        booking.ClientPhone,
		ServiceID:          service.ID,
		ServiceName:        serviceName,
		PackageName:        booking.PackageName,
		PackagePrice:       booking.PackagePrice,
		Currency:           s.Terms.Currency,
		TotalAmount:        total,
		PaidAmount:         0,
		RemainingAmount:    total,
		Status:             models.InvoiceUnpaid,
		PaymentType:        paymentType,
		Milestones:         milestones,
		Payments:           []models.PaymentRecord{},
		PaymentMethods:     append([]models.PaymentMethodInfo(nil), s.Terms.PaymentMethods...),
		IssueDate:          now,
		DueDate:            pricing.CalculateDueDate(now, s.Terms.DueDays),
		TermsAndConditions: s.Terms.TermsAndConditions,
		Version:            0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// buildMilestones gives every process step an equal share of total. Without steps the
// invoice is a single full payment.
func buildMilestones(steps []models.ProcessStep, total float64) []models.Milestone {
	if len(steps) == 0 {
		return []models.Milestone{{
			ID:            uuid.New().String(),
			Name:          "Full Payment",
			Description:   "Complete payment for the service",
			Amount:        total,
			Percentage:    100,
			Status:        models.MilestonePending,
			PaymentStatus: models.MilestoneUnpaid,
		}}
	}

	amount, percentage := pricing.SplitEvenly(total, len(steps))
	milestones := make([]models.Milestone, 0, len(steps))
	for i, step := range steps {
		name := strings.TrimSpace(step.Step)
		if name == "" {
			name = strings.TrimSpace(step.Description)
		}
		if name == "" {
			name = fmt.Sprintf("Milestone %d", i+1)
		}
		milestones = append(milestones, models.Milestone{
			ID:            uuid.New().String(),
			Name:          name,
			Description:   step.Description,
			Amount:        amount,
			Percentage:    percentage,
			Status:        models.MilestonePending,
			PaymentStatus: models.MilestoneUnpaid,
		})
	}
	return milestones
}
