package models

import "time"

// Booking is a client's confirmed request for a service package. Bookings are owned by the
// booking subsystem; billing only reads them, links an invoice and appends timeline entries.
type Booking struct {
	ID           string          `bson:"id" json:"id"`
	ClientID     string          `bson:"clientId" json:"clientId"`
	ClientName   string          `bson:"clientName" json:"clientName"`
	ClientEmail  string          `bson:"clientEmail" json:"clientEmail"`
	ClientPhone  string          `bson:"clientPhone" json:"clientPhone"`
	ServiceID    string          `bson:"serviceId" json:"serviceId"`
	ServiceTitle string          `bson:"serviceTitle" json:"serviceTitle"`
	PackageName  string          `bson:"packageName" json:"packageName"`
	PackagePrice string          `bson:"packagePrice" json:"packagePrice"` // display string, e.g. "৳50,000"
	Status       string          `bson:"status" json:"status"`             // free-form phase, e.g. "Paid"
	Timeline     []TimelineEntry `bson:"timeline" json:"timeline"`
	InvoiceID    string          `bson:"invoiceId,omitempty" json:"invoiceId,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// TimelineEntry is one append-only step in a booking's history.
type TimelineEntry struct {
	Phase       string    `bson:"phase" json:"phase"`
	Status      string    `bson:"status" json:"status"`
	Date        time.Time `bson:"date" json:"date"`
	Description string    `bson:"description" json:"description"`
}

const (
	BookingStatusPaid       = "Paid"
	TimelineStatusCompleted = "Completed"
)
