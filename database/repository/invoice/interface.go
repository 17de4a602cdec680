package invoiceRepo

import (
	"agencyhub/models"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Invoice, error)
	ListByClientID(ctx context.Context, clientID string) ([]models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
	// ApplyPayment writes the payment-derived fields of invoice and appends payment, but only
	// if the stored version still equals expectedVersion.
	ApplyPayment(ctx context.Context, invoice *models.Invoice, payment models.PaymentRecord, expectedVersion int64) error
	UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus, expectedVersion int64, at time.Time) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// MongoInvoiceRepo implements InvoiceRepository using MongoDB.
type MongoInvoiceRepo struct {
	coll *mongo.Collection
}

// NewMongoInvoiceRepo returns an InvoiceRepository backed by the "invoices" collection.
func NewMongoInvoiceRepo(db *mongo.Database) *MongoInvoiceRepo {
	return &MongoInvoiceRepo{
		coll: db.Collection("invoices"),
	}
}
