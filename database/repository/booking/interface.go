package bookingRepo

import (
	"agencyhub/models"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	SetInvoiceID(ctx context.Context, bookingID, invoiceID string) error
	// AppendTimeline pushes entry onto the booking timeline. A non-empty status also
	// replaces the booking status.
	AppendTimeline(ctx context.Context, bookingID string, entry models.TimelineEntry, status string) error
}

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a BookingRepository over the "bookings" collection.
func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
