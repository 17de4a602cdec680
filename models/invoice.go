package models

import "time"

type InvoiceStatus string

const (
	InvoiceUnpaid    InvoiceStatus = "Unpaid"
	InvoicePartial   InvoiceStatus = "Partial"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

type PaymentType string

const (
	PaymentTypeFull      PaymentType = "Full"
	PaymentTypeMilestone PaymentType = "Milestone"
)

// Invoice is the billing document generated from a booking. Milestones and payments are
// embedded, so every mutation rewrites the whole document.
type Invoice struct {
	ID            string `bson:"id" json:"id"`
	InvoiceNumber string `bson:"invoiceNumber" json:"invoiceNumber"`
	BookingID     string `bson:"bookingId" json:"bookingId"`
	ClientID      string `bson:"clientId" json:"clientId"`

	// Snapshot of the booking at creation time.
	ClientName   string `bson:"clientName" json:"clientName"`
	ClientEmail  string `bson:"clientEmail" json:"clientEmail"`
	ClientPhone  string `bson:"clientPhone" json:"clientPhone"`
	ServiceID    string `bson:"serviceId" json:"serviceId"`
	ServiceName  string `bson:"serviceName" json:"serviceName"`
	PackageName  string `bson:"packageName" json:"packageName"`
	PackagePrice string `bson:"packagePrice" json:"packagePrice"`

	Currency        string        `bson:"currency" json:"currency"`
	TotalAmount     float64       `bson:"totalAmount" json:"totalAmount"`
	PaidAmount      float64       `bson:"paidAmount" json:"paidAmount"`
	RemainingAmount float64       `bson:"remainingAmount" json:"remainingAmount"`
	Status          InvoiceStatus `bson:"status" json:"status"`
	PaymentType     PaymentType   `bson:"paymentType" json:"paymentType"`

	Milestones     []Milestone         `bson:"milestones" json:"milestones"`
	Payments       []PaymentRecord     `bson:"payments" json:"payments"`
	PaymentMethods []PaymentMethodInfo `bson:"paymentMethods" json:"paymentMethods"`

	IssueDate          time.Time  `bson:"issueDate" json:"issueDate"`
	DueDate            time.Time  `bson:"dueDate" json:"dueDate"`
	PaidDate           *time.Time `bson:"paidDate,omitempty" json:"paidDate,omitempty"`
	TermsAndConditions string     `bson:"termsAndConditions" json:"termsAndConditions"`
	Notes              string     `bson:"notes,omitempty" json:"notes,omitempty"`

	// Version is bumped on every write and guards the read-modify-write of payments.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "Pending"
	MilestoneInProgress MilestoneStatus = "In Progress"
	MilestoneCompleted  MilestoneStatus = "Completed"
)

type MilestonePaymentStatus string

const (
	MilestoneUnpaid MilestonePaymentStatus = "Unpaid"
	MilestonePaid   MilestonePaymentStatus = "Paid"
)

// Milestone is an amount-bounded share of an invoice total.
type Milestone struct {
	ID            string                 `bson:"id" json:"id"`
	Name          string                 `bson:"name" json:"name"`
	Description   string                 `bson:"description" json:"description"`
	Amount        float64                `bson:"amount" json:"amount"`
	Percentage    float64                `bson:"percentage" json:"percentage"`
	Status        MilestoneStatus        `bson:"status" json:"status"`
	PaymentStatus MilestonePaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaidAmount    float64                `bson:"paidAmount" json:"paidAmount"`
	PaidDate      *time.Time             `bson:"paidDate,omitempty" json:"paidDate,omitempty"`
}

// PaymentMethodInfo describes a channel a client can pay through.
type PaymentMethodInfo struct {
	Method        string `bson:"method" json:"method"`
	AccountName   string `bson:"accountName,omitempty" json:"accountName,omitempty"`
	AccountNumber string `bson:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	Instructions  string `bson:"instructions,omitempty" json:"instructions,omitempty"`
}

// FindMilestone returns the index of the milestone with the given id, or -1.
func (inv *Invoice) FindMilestone(id string) int {
	for i := range inv.Milestones {
		if inv.Milestones[i].ID == id {
			return i
		}
	}
	return -1
}

// FindPaymentByKey returns the recorded payment carrying the idempotency key, if any.
func (inv *Invoice) FindPaymentByKey(key string) (*PaymentRecord, bool) {
	if key == "" {
		return nil, false
	}
	for i := range inv.Payments {
		if inv.Payments[i].IdempotencyKey == key {
			return &inv.Payments[i], true
		}
	}
	return nil, false
}
