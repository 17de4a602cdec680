// Package memory keeps invoices, bookings and services in process memory. It backs tests
// and single-process dev runs without MongoDB.
package memory

import (
	"context"
	"sync"

	"agencyhub/models"
)

type Store struct {
	mu       sync.RWMutex
	invoices map[string]*models.Invoice
	bookings map[string]*models.Booking
	services map[string]*models.Service

	// txMu serialises transactions so two journals never cover the same document.
	txMu sync.Mutex
}

func New() *Store {
	return &Store{
		invoices: map[string]*models.Invoice{},
		bookings: map[string]*models.Booking{},
		services: map[string]*models.Service{},
	}
}

func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }
func (s *Store) Bookings() *BookingRepo { return &BookingRepo{s: s} }
func (s *Store) Services() *ServiceRepo { return &ServiceRepo{s: s} }

func (s *Store) Atomic() bool { return true }

// WithTransaction runs fn with a journal in its context. Repository writes made through that
// context record the document's prior state, and a failing fn restores exactly those
// documents. Writes made outside the transaction are left alone.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{
		invoices: map[string]*models.Invoice{},
		bookings: map[string]*models.Booking{},
		services: map[string]*models.Service{},
	}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		j.rollback(s)
		s.mu.Unlock()
		return err
	}
	return nil
}

type journalKey struct{}

// journal holds the pre-transaction state of every document a transaction wrote. A nil
// entry means the document did not exist.
type journal struct {
	invoices map[string]*models.Invoice
	bookings map[string]*models.Booking
	services map[string]*models.Service
}

// journalFrom returns the transaction journal of ctx, or nil outside a transaction.
func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// The record methods must be called with s.mu held, before the write.

func (j *journal) recordInvoice(s *Store, id string) {
	if j == nil {
		return
	}
	if _, seen := j.invoices[id]; seen {
		return
	}
	if cur, ok := s.invoices[id]; ok {
		j.invoices[id] = cloneInvoice(cur)
	} else {
		j.invoices[id] = nil
	}
}

func (j *journal) recordBooking(s *Store, id string) {
	if j == nil {
		return
	}
	if _, seen := j.bookings[id]; seen {
		return
	}
	if cur, ok := s.bookings[id]; ok {
		j.bookings[id] = cloneBooking(cur)
	} else {
		j.bookings[id] = nil
	}
}

func (j *journal) recordService(s *Store, id string) {
	if j == nil {
		return
	}
	if _, seen := j.services[id]; seen {
		return
	}
	if cur, ok := s.services[id]; ok {
		j.services[id] = cloneService(cur)
	} else {
		j.services[id] = nil
	}
}

func (j *journal) rollback(s *Store) {
	for id, prev := range j.invoices {
		if prev == nil {
			delete(s.invoices, id)
		} else {
			s.invoices[id] = prev
		}
	}
	for id, prev := range j.bookings {
		if prev == nil {
			delete(s.bookings, id)
		} else {
			s.bookings[id] = prev
		}
	}
	for id, prev := range j.services {
		if prev == nil {
			delete(s.services, id)
		} else {
			s.services[id] = prev
		}
	}
}
