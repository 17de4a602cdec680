package invoiceRepo

import (
	"agencyhub/database"
	"agencyhub/models"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Create inserts a new invoice document.
func (r *MongoInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if invoice.Milestones == nil {
		invoice.Milestones = []models.Milestone{}
	}
	if invoice.Payments == nil {
		invoice.Payments = []models.PaymentRecord{}
	}

	if _, err := r.coll.InsertOne(ctx, invoice); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("invoice for booking %s: %w", invoice.BookingID, database.ErrDuplicateKey)
		}
		return fmt.Errorf("error creating invoice: %w", err)
	}
	return nil
}

// GetByID returns an invoice by its ID.
func (r *MongoInvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// GetByBookingID returns the invoice generated for a booking.
func (r *MongoInvoiceRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Invoice, error) {
	return r.findOne(ctx, bson.M{"bookingId": bookingID})
}

func (r *MongoInvoiceRepo) findOne(ctx context.Context, filter bson.M) (*models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var invoice models.Invoice
	if err := r.coll.FindOne(ctx, filter).Decode(&invoice); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("error fetching invoice: %w", err)
	}
	return &invoice, nil
}

// ApplyPayment sets the payment-derived fields, appends the payment record and bumps the
// version in a single document update.
func (r *MongoInvoiceRepo) ApplyPayment(ctx context.Context, invoice *models.Invoice, payment models.PaymentRecord, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"paidAmount":      invoice.PaidAmount,
		"remainingAmount": invoice.RemainingAmount,
		"status":          invoice.Status,
		"milestones":      invoice.Milestones,
		"updatedAt":       invoice.UpdatedAt,
	}
	if invoice.PaidDate != nil {
		set["paidDate"] = invoice.PaidDate
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"payments": payment},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": invoice.ID, "version": expectedVersion}, update)
	if err != nil {
		return fmt.Errorf("error applying payment to invoice %s: %w", invoice.ID, err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, invoice.ID)
	}
	return nil
}

// UpdateStatus overrides the invoice status, guarded by the expected version.
func (r *MongoInvoiceRepo) UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus, expectedVersion int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"status": status, "updatedAt": at},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "version": expectedVersion}, update)
	if err != nil {
		return fmt.Errorf("error updating status of invoice %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *MongoInvoiceRepo) missOrConflict(ctx context.Context, id string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("error checking invoice %s: %w", id, err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return database.ErrVersionConflict
}
