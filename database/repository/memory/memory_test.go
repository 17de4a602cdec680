package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agencyhub/database"
	"agencyhub/models"
)

func seedInvoice(t *testing.T, s *Store, id, bookingID string) {
	t.Helper()
	err := s.Invoices().Create(context.Background(), &models.Invoice{
		ID:          id,
		BookingID:   bookingID,
		TotalAmount: 100,
		Status:      models.InvoiceUnpaid,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestWithTransaction_RollbackKeepsOutsideWrites(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv-a", "booking-a")
	seedInvoice(t, s, "inv-b", "booking-b")
	if err := s.Bookings().Create(context.Background(), &models.Booking{ID: "booking-a"}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	errAbort := errors.New("abort")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := s.WithTransaction(context.Background(), func(ctx context.Context) error {
		if err := s.Invoices().UpdateStatus(ctx, "inv-a", models.InvoiceCancelled, 0, at); err != nil {
			return err
		}
		if err := s.Bookings().SetInvoiceID(ctx, "booking-a", "inv-a"); err != nil {
			return err
		}
		if err := s.Invoices().Create(ctx, &models.Invoice{ID: "inv-c", BookingID: "booking-c"}); err != nil {
			return err
		}

		// another request commits a change to a different invoice while the transaction runs
		done := make(chan error, 1)
		go func() {
			done <- s.Invoices().UpdateStatus(context.Background(), "inv-b", models.InvoiceCancelled, 0, at)
		}()
		if err := <-done; err != nil {
			t.Errorf("outside write: %v", err)
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected abort error, got %v", err)
	}

	a, err := s.Invoices().GetByID(context.Background(), "inv-a")
	if err != nil {
		t.Fatalf("get inv-a: %v", err)
	}
	if a.Status != models.InvoiceUnpaid || a.Version != 0 {
		t.Errorf("inv-a not rolled back: status %s version %d", a.Status, a.Version)
	}

	b, err := s.Invoices().GetByID(context.Background(), "inv-b")
	if err != nil {
		t.Fatalf("get inv-b: %v", err)
	}
	if b.Status != models.InvoiceCancelled || b.Version != 1 {
		t.Errorf("outside write to inv-b lost: status %s version %d", b.Status, b.Version)
	}

	if _, err := s.Invoices().GetByID(context.Background(), "inv-c"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("invoice created in failed transaction still present: %v", err)
	}
	booking, err := s.Bookings().GetByID(context.Background(), "booking-a")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if booking.InvoiceID != "" {
		t.Errorf("booking invoice id not rolled back: %q", booking.InvoiceID)
	}
}

func TestWithTransaction_CommitKeepsWrites(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv-a", "booking-a")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := s.WithTransaction(context.Background(), func(ctx context.Context) error {
		if err := s.Invoices().UpdateStatus(ctx, "inv-a", models.InvoiceCancelled, 0, at); err != nil {
			return err
		}
		n, err := s.Invoices().MarkOverdue(ctx, at)
		if err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("cancelled invoice marked overdue")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	a, err := s.Invoices().GetByID(context.Background(), "inv-a")
	if err != nil {
		t.Fatalf("get inv-a: %v", err)
	}
	if a.Status != models.InvoiceCancelled {
		t.Errorf("expected committed status Cancelled, got %s", a.Status)
	}
}

func TestWithTransaction_RollbackRestoresFirstPreImage(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv-a", "booking-a")

	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := s.WithTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := s.Invoices().MarkOverdue(ctx, past.AddDate(1, 0, 0)); err != nil {
			return err
		}
		if err := s.Invoices().UpdateStatus(ctx, "inv-a", models.InvoiceCancelled, 1, past); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	a, err := s.Invoices().GetByID(context.Background(), "inv-a")
	if err != nil {
		t.Fatalf("get inv-a: %v", err)
	}
	if a.Status != models.InvoiceUnpaid || a.Version != 0 {
		t.Errorf("expected original Unpaid v0, got %s v%d", a.Status, a.Version)
	}
}
