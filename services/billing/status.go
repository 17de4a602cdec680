package billing

import (
	"time"

	"agencyhub/models"
	"agencyhub/services/pricing"
)

// overpaymentTolerance absorbs the cent-level drift between rounded milestone amounts and
// the invoice total.
const overpaymentTolerance = 0.02

// DeriveStatus computes the invoice status after a payment. A paid-up invoice is Paid, any
// money received makes it Partial, and otherwise the current status is kept, so a status
// never falls back to Unpaid once payments exist.
func DeriveStatus(current models.InvoiceStatus, paidAmount, totalAmount float64) models.InvoiceStatus {
	switch {
	case paidAmount >= totalAmount:
		return models.InvoicePaid
	case paidAmount > 0:
		return models.InvoicePartial
	default:
		return current
	}
}

// paymentOutcome describes what a single payment changed on an invoice.
type paymentOutcome struct {
	becamePaid         bool
	completedMilestone *models.Milestone
}

// applyPayment folds payment into invoice in place. It does not append the payment record.
func applyPayment(invoice *models.Invoice, payment models.PaymentRecord, now time.Time) (paymentOutcome, error) {
	var outcome paymentOutcome

	newPaid := pricing.Round2(invoice.PaidAmount + payment.Amount)
	if newPaid > invoice.TotalAmount+overpaymentTolerance {
		return outcome, validationErrorf("payment of %s exceeds the remaining amount of %s",
			pricing.FormatCurrency(payment.Amount, invoice.Currency),
			pricing.FormatCurrency(invoice.RemainingAmount, invoice.Currency))
	}

	if payment.MilestoneID != "" {
		idx := invoice.FindMilestone(payment.MilestoneID)
		if idx < 0 {
			return outcome, validationErrorf("milestone %s does not belong to invoice %s", payment.MilestoneID, invoice.InvoiceNumber)
		}
		m := &invoice.Milestones[idx]
		m.PaidAmount = pricing.Round2(m.PaidAmount + payment.Amount)
		if m.PaidAmount >= m.Amount && m.PaymentStatus != models.MilestonePaid {
			paidAt := now
			m.PaymentStatus = models.MilestonePaid
			m.PaidDate = &paidAt
			completed := *m
			outcome.completedMilestone = &completed
		}
	}

	previous := invoice.Status
	invoice.PaidAmount = newPaid
	invoice.RemainingAmount = pricing.Round2(invoice.TotalAmount - newPaid)
	invoice.Status = DeriveStatus(previous, newPaid, invoice.TotalAmount)
	invoice.UpdatedAt = now
	if invoice.Status == models.InvoicePaid && previous != models.InvoicePaid {
		paidAt := now
		invoice.PaidDate = &paidAt
		outcome.becamePaid = true
	}
	return outcome, nil
}
