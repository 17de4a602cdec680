package memory

import (
	"context"
	"time"

	"agencyhub/database"
	"agencyhub/models"
)

// BookingRepo is the in-memory BookingRepository.
type BookingRepo struct{ s *Store }

func (r *BookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[booking.ID]; ok {
		return database.ErrDuplicateKey
	}
	journalFrom(ctx).recordBooking(r.s, booking.ID)
	r.s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepo) SetInvoiceID(ctx context.Context, bookingID, invoiceID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[bookingID]
	if !ok {
		return database.ErrNotFound
	}
	journalFrom(ctx).recordBooking(r.s, bookingID)
	b.InvoiceID = invoiceID
	b.UpdatedAt = time.Now()
	return nil
}

func (r *BookingRepo) AppendTimeline(ctx context.Context, bookingID string, entry models.TimelineEntry, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[bookingID]
	if !ok {
		return database.ErrNotFound
	}
	journalFrom(ctx).recordBooking(r.s, bookingID)
	b.Timeline = append(b.Timeline, entry)
	if status != "" {
		b.Status = status
	}
	b.UpdatedAt = entry.Date
	return nil
}

// ServiceRepo is the in-memory ServiceRepository.
type ServiceRepo struct{ s *Store }

func (r *ServiceRepo) Create(ctx context.Context, service *models.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[service.ID]; ok {
		return database.ErrDuplicateKey
	}
	journalFrom(ctx).recordService(r.s, service.ID)
	r.s.services[service.ID] = cloneService(service)
	return nil
}

func (r *ServiceRepo) GetByID(_ context.Context, id string) (*models.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	svc, ok := r.s.services[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return cloneService(svc), nil
}
