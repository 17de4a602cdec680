package billing

import (
	"context"
	"time"

	"agencyhub/database"
	bookingRepo "agencyhub/database/repository/booking"
	invoiceRepo "agencyhub/database/repository/invoice"
	serviceRepo "agencyhub/database/repository/service"
	"agencyhub/models"
	"agencyhub/services/pricing"
	"agencyhub/utils"

	"go.uber.org/zap"
)

// BillingService generates invoices from bookings and records payments against them.
type BillingService interface {
	GenerateInvoice(ctx context.Context, bookingID, serviceID string) (*models.Invoice, error)
	RecordPayment(ctx context.Context, invoiceID string, input models.PaymentInput) (*models.Invoice, error)

	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	GetInvoiceByBooking(ctx context.Context, bookingID string) (*models.Invoice, error)
	ListInvoicesByClient(ctx context.Context, clientID string) ([]models.Invoice, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	ListPayments(ctx context.Context, invoiceID string) ([]models.PaymentRecord, error)

	UpdateInvoiceStatus(ctx context.Context, invoiceID string, status models.InvoiceStatus) (*models.Invoice, error)
	MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error)
}

// Terms is the static part of every new invoice.
type Terms struct {
	Currency           string
	DueDays            int
	PaymentMethods     []models.PaymentMethodInfo
	TermsAndConditions string
}

const defaultTermsAndConditions = "Payment is due within the period stated on this invoice. " +
	"Milestone payments are due on completion of the corresponding project phase. " +
	"Work on the next phase begins once the previous milestone has been paid. " +
	"Please quote the invoice number as the payment reference."

// DefaultTerms returns the standard payment channels and terms text.
func DefaultTerms(currency string, dueDays int) Terms {
	if currency == "" {
		currency = "BDT"
	}
	if dueDays <= 0 {
		dueDays = pricing.DefaultDueDays
	}
	return Terms{
		Currency: currency,
		DueDays:  dueDays,
		PaymentMethods: []models.PaymentMethodInfo{
			{Method: string(models.PaymentBKash), Instructions: "Send Money to the merchant number and use the invoice number as reference."},
			{Method: string(models.PaymentNagad), Instructions: "Send Money to the merchant number and use the invoice number as reference."},
			{Method: string(models.PaymentBank), Instructions: "Bank transfer to the account on file; include the invoice number in the transfer note."},
			{Method: string(models.PaymentOther), Instructions: "Contact accounts to arrange another payment channel."},
		},
		TermsAndConditions: defaultTermsAndConditions,
	}
}

// DefaultBillingService implements BillingService.
type DefaultBillingService struct {
	Invoices invoiceRepo.InvoiceRepository
	Bookings bookingRepo.BookingRepository
	Services serviceRepo.ServiceRepository
	Tx       database.TxRunner
	Locker   utils.InvoiceLocker
	Terms    Terms
	Logger   *zap.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

func (s *DefaultBillingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *DefaultBillingService) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}
