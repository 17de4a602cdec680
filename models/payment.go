package models

import "time"

type PaymentMethod string

const (
	PaymentBKash PaymentMethod = "bKash"
	PaymentNagad PaymentMethod = "Nagad"
	PaymentBank  PaymentMethod = "Bank"
	PaymentOther PaymentMethod = "Other"
)

// Valid reports whether m is one of the accepted payment channels.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBKash, PaymentNagad, PaymentBank, PaymentOther:
		return true
	}
	return false
}

// PaymentRecord is an immutable entry in an invoice's payment log.
type PaymentRecord struct {
	ID               string        `bson:"id" json:"id"`
	Amount           float64       `bson:"amount" json:"amount"`
	Method           PaymentMethod `bson:"method" json:"method"`
	TransactionID    string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	MilestoneID      string        `bson:"milestoneId,omitempty" json:"milestoneId,omitempty"`
	PaymentDate      time.Time     `bson:"paymentDate" json:"paymentDate"`
	Notes            string        `bson:"notes,omitempty" json:"notes,omitempty"`
	VerifiedBy       string        `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerificationDate *time.Time    `bson:"verificationDate,omitempty" json:"verificationDate,omitempty"`
	IdempotencyKey   string        `bson:"idempotencyKey,omitempty" json:"idempotencyKey,omitempty"`
}

// PaymentInput carries a payment to be recorded against an invoice.
type PaymentInput struct {
	Amount         float64       `json:"amount"`
	Method         PaymentMethod `json:"method"`
	TransactionID  string        `json:"transactionId,omitempty"`
	MilestoneID    string        `json:"milestoneId,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	VerifiedBy     string        `json:"verifiedBy,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
}

// GenerateInvoiceInput is the request body for invoice generation.
type GenerateInvoiceInput struct {
	BookingID string `json:"bookingId"`
	ServiceID string `json:"serviceId"`
}

// InvoiceStatusInput is the request body for a manual status change.
type InvoiceStatusInput struct {
	Status InvoiceStatus `json:"status"`
}
