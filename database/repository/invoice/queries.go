package invoiceRepo

import (
	"agencyhub/models"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListByClientID returns a client's invoices, newest first.
func (r *MongoInvoiceRepo) ListByClientID(ctx context.Context, clientID string) ([]models.Invoice, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

// List returns every invoice, newest first.
func (r *MongoInvoiceRepo) List(ctx context.Context) ([]models.Invoice, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoInvoiceRepo) find(ctx context.Context, filter bson.M) ([]models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}
	defer cursor.Close(ctx)

	invoices := []models.Invoice{}
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("error decoding invoices: %w", err)
	}
	return invoices, nil
}

// MarkOverdue flips unpaid and partially paid invoices past their due date to Overdue.
func (r *MongoInvoiceRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"dueDate": bson.M{"$lt": now},
		"status":  bson.M{"$in": bson.A{models.InvoiceUnpaid, models.InvoicePartial}},
	}
	update := bson.M{
		"$set": bson.M{"status": models.InvoiceOverdue, "updatedAt": now},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("error marking overdue invoices: %w", err)
	}
	return res.ModifiedCount, nil
}
