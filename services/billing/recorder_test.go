package billing

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	bookingRepo "agencyhub/database/repository/booking"
	"agencyhub/database/repository/memory"
	"agencyhub/models"
)

func pay(t *testing.T, f *fixture, invoiceID string, in models.PaymentInput) *models.Invoice {
	t.Helper()
	inv, err := f.svc.RecordPayment(context.Background(), invoiceID, in)
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	assertBalanced(t, inv)
	return inv
}

func TestRecordPayment_MilestoneThenFull(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-a", "$1000", "Design", "Development")
	m1, m2 := inv.Milestones[0], inv.Milestones[1]

	f.now = f.now.Add(time.Hour)
	afterFirst := pay(t, f, inv.ID, models.PaymentInput{Amount: 500, Method: models.PaymentBKash, MilestoneID: m1.ID, TransactionID: "TX1"})

	if afterFirst.PaidAmount != 500 || afterFirst.RemainingAmount != 500 {
		t.Fatalf("paid/remaining = %v/%v", afterFirst.PaidAmount, afterFirst.RemainingAmount)
	}
	if afterFirst.Status != models.InvoicePartial {
		t.Fatalf("status = %s, want Partial", afterFirst.Status)
	}
	if afterFirst.PaidDate != nil {
		t.Fatalf("paidDate must stay unset while Partial")
	}
	got1 := afterFirst.Milestones[0]
	if got1.PaymentStatus != models.MilestonePaid || got1.PaidAmount != 500 || got1.PaidDate == nil || !got1.PaidDate.Equal(f.now) {
		t.Fatalf("milestone 1 not paid: %+v", got1)
	}
	if !reflect.DeepEqual(afterFirst.Milestones[1], m2) {
		t.Fatalf("milestone 2 changed: %+v", afterFirst.Milestones[1])
	}

	b := f.booking(t, "booking-a")
	if len(b.Timeline) != 1 {
		t.Fatalf("timeline entries = %d, want 1", len(b.Timeline))
	}
	entry := b.Timeline[0]
	if entry.Phase != "Design - Payment Received" || entry.Status != "Completed" ||
		entry.Description != "Milestone payment of USD 500 received" {
		t.Fatalf("unexpected milestone timeline entry %+v", entry)
	}
	if b.Status != "Confirmed" {
		t.Fatalf("booking status changed to %q on a milestone payment", b.Status)
	}

	f.now = f.now.Add(time.Hour)
	afterSecond := pay(t, f, inv.ID, models.PaymentInput{Amount: 500, Method: models.PaymentBank, MilestoneID: m2.ID})

	if afterSecond.PaidAmount != 1000 || afterSecond.RemainingAmount != 0 {
		t.Fatalf("paid/remaining = %v/%v", afterSecond.PaidAmount, afterSecond.RemainingAmount)
	}
	if afterSecond.Status != models.InvoicePaid || afterSecond.PaidDate == nil || !afterSecond.PaidDate.Equal(f.now) {
		t.Fatalf("invoice not Paid: status %s paidDate %v", afterSecond.Status, afterSecond.PaidDate)
	}
	if afterSecond.Milestones[1].PaymentStatus != models.MilestonePaid {
		t.Fatalf("milestone 2 not paid")
	}

	b = f.booking(t, "booking-a")
	if b.Status != models.BookingStatusPaid {
		t.Fatalf("booking status = %q, want Paid", b.Status)
	}
	last := b.Timeline[len(b.Timeline)-1]
	if last.Phase != "Payment Received" || last.Description != "Full payment of USD 1000 received" {
		t.Fatalf("unexpected final timeline entry %+v", last)
	}
	if len(b.Timeline) != 2 {
		t.Fatalf("timeline entries = %d, want 2", len(b.Timeline))
	}
}

func TestRecordPayment_PaymentsAreAppendOnly(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-log", "$900", "One", "Two", "Three")

	var history []models.PaymentRecord
	amounts := []float64{100, 250, 50, 500}
	for i, amount := range amounts {
		f.now = f.now.Add(time.Minute)
		got := pay(t, f, inv.ID, models.PaymentInput{Amount: amount, Method: models.PaymentNagad, VerifiedBy: "accounts"})
		if len(got.Payments) != i+1 {
			t.Fatalf("after payment %d: %d records", i+1, len(got.Payments))
		}
		if !reflect.DeepEqual(got.Payments[:i], history) {
			t.Fatalf("earlier payment records were modified")
		}
		rec := got.Payments[i]
		if rec.Amount != amount || rec.VerificationDate == nil || !rec.PaymentDate.Equal(f.now) || rec.ID == "" {
			t.Fatalf("unexpected record %+v", rec)
		}
		history = append(history, rec)
	}

	payments, err := f.svc.ListPayments(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if !reflect.DeepEqual(payments, history) {
		t.Fatalf("ListPayments differs from recorded history")
	}
}

func TestRecordPayment_PartialMilestoneStaysUnpaid(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-p", "$1000", "Design", "Build")
	mID := inv.Milestones[0].ID

	got := pay(t, f, inv.ID, models.PaymentInput{Amount: 200, Method: models.PaymentBank, MilestoneID: mID})
	m := got.Milestones[0]
	if m.PaymentStatus != models.MilestoneUnpaid || m.PaidAmount != 200 || m.PaidDate != nil {
		t.Fatalf("partially covered milestone = %+v", m)
	}
	if len(f.booking(t, "booking-p").Timeline) != 0 {
		t.Fatalf("no timeline entry expected for an incomplete milestone")
	}

	got = pay(t, f, inv.ID, models.PaymentInput{Amount: 300, Method: models.PaymentBank, MilestoneID: mID})
	if got.Milestones[0].PaymentStatus != models.MilestonePaid || got.Milestones[0].PaidAmount != 500 {
		t.Fatalf("milestone should be paid after cumulative 500: %+v", got.Milestones[0])
	}
	if len(f.booking(t, "booking-p").Timeline) != 1 {
		t.Fatalf("completion should add one timeline entry")
	}
}

func TestRecordPayment_Validation(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-v", "$100")

	cases := []models.PaymentInput{
		{Amount: 0, Method: models.PaymentBank},
		{Amount: -5, Method: models.PaymentBank},
		{Amount: 10},
		{Amount: 10, Method: "Card"},
		{Amount: 10, Method: models.PaymentBank, MilestoneID: "unknown"},
		{Amount: 100.5, Method: models.PaymentBank},
	}
	for _, in := range cases {
		_, err := f.svc.RecordPayment(context.Background(), inv.ID, in)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("input %+v: err = %v, want ErrValidation", in, err)
		}
	}

	stored, _ := f.svc.GetInvoice(context.Background(), inv.ID)
	if len(stored.Payments) != 0 || stored.PaidAmount != 0 || stored.Version != 0 {
		t.Fatalf("rejected payments left writes behind: %+v", stored)
	}
}

func TestRecordPayment_RejectsSubCentAmounts(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-cents", "$1000")

	for _, amount := range []float64{0.004, 10.005, 99.999} {
		_, err := f.svc.RecordPayment(context.Background(), inv.ID, models.PaymentInput{Amount: amount, Method: models.PaymentBank})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("amount %v: err = %v, want ErrValidation", amount, err)
		}
	}

	pay(t, f, inv.ID, models.PaymentInput{Amount: 0.01, Method: models.PaymentBank})
	got := pay(t, f, inv.ID, models.PaymentInput{Amount: 10.25, Method: models.PaymentBank})
	var logged float64
	for _, p := range got.Payments {
		logged += p.Amount
	}
	if len(got.Payments) != 2 || !approx(got.PaidAmount, 10.26) || math.Abs(logged-got.PaidAmount) > 1e-9 {
		t.Fatalf("paidAmount %v does not match payment log %v (%d records)", got.PaidAmount, logged, len(got.Payments))
	}
	if got.Status != models.InvoicePartial {
		t.Fatalf("status = %s, want Partial", got.Status)
	}
}

func TestRecordPayment_TopUpOnPaidInvoiceAddsNoTimelineEntry(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-topup", "$100")
	pay(t, f, inv.ID, models.PaymentInput{Amount: 100, Method: models.PaymentBank})

	got := pay(t, f, inv.ID, models.PaymentInput{Amount: 0.01, Method: models.PaymentBank})
	if got.Status != models.InvoicePaid || len(got.Payments) != 2 {
		t.Fatalf("top-up: status %s payments %d", got.Status, len(got.Payments))
	}
	if n := len(f.booking(t, "booking-topup").Timeline); n != 1 {
		t.Fatalf("timeline entries = %d, want 1", n)
	}
}

func TestRecordPayment_InvoiceNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordPayment(context.Background(), "missing", models.PaymentInput{Amount: 1, Method: models.PaymentOther})
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("err = %v, want ErrInvoiceNotFound", err)
	}
}

func TestRecordPayment_IdempotencyKeyReplay(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-i", "$1000", "One", "Two")

	in := models.PaymentInput{Amount: 500, Method: models.PaymentBKash, MilestoneID: inv.Milestones[0].ID, IdempotencyKey: "retry-1"}
	first := pay(t, f, inv.ID, in)
	second := pay(t, f, inv.ID, in)

	if len(second.Payments) != 1 || second.PaidAmount != 500 {
		t.Fatalf("replay was applied twice: %d payments, paid %v", len(second.Payments), second.PaidAmount)
	}
	if !reflect.DeepEqual(first.Payments, second.Payments) {
		t.Fatalf("replay changed payment log")
	}
	if len(f.booking(t, "booking-i").Timeline) != 1 {
		t.Fatalf("replay must not touch the booking")
	}
}

func TestRecordPayment_OverpaymentRejected(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-o", "$1000")
	pay(t, f, inv.ID, models.PaymentInput{Amount: 1000, Method: models.PaymentBank})

	_, err := f.svc.RecordPayment(context.Background(), inv.ID, models.PaymentInput{Amount: 1, Method: models.PaymentBank})
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want overpayment validation error", err)
	}
}

func TestRecordPayment_RoundedMilestonesCanCompleteInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-r", "$200", "a", "b", "c")

	var got *models.Invoice
	for _, m := range inv.Milestones {
		got = pay(t, f, inv.ID, models.PaymentInput{Amount: m.Amount, Method: models.PaymentBank, MilestoneID: m.ID})
	}
	if got.Status != models.InvoicePaid {
		t.Fatalf("status = %s, want Paid", got.Status)
	}
}

func TestRecordPayment_CancelledInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-c", "$100")
	if _, err := f.svc.UpdateInvoiceStatus(context.Background(), inv.ID, models.InvoiceCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.svc.RecordPayment(context.Background(), inv.ID, models.PaymentInput{Amount: 10, Method: models.PaymentBank})
	if !errors.Is(err, ErrInvoiceCancelled) {
		t.Fatalf("err = %v, want ErrInvoiceCancelled", err)
	}
}

func TestRecordPayment_ConcurrentPaymentsDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-cc", "$1000", "a", "b")

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordPayment(context.Background(), inv.ID, models.PaymentInput{Amount: 50, Method: models.PaymentBank})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent payment failed: %v", err)
		}
	}

	got, _ := f.svc.GetInvoice(context.Background(), inv.ID)
	if got.PaidAmount != 1000 || len(got.Payments) != workers || got.Status != models.InvoicePaid {
		t.Fatalf("lost updates: paid %v payments %d status %s", got.PaidAmount, len(got.Payments), got.Status)
	}
	if got.Version != workers {
		t.Fatalf("version = %d, want %d", got.Version, workers)
	}
	assertBalanced(t, got)
}

type failingTimeline struct {
	bookingRepo.BookingRepository
}

func (failingTimeline) AppendTimeline(context.Context, string, models.TimelineEntry, string) error {
	return errors.New("bookings collection unavailable")
}

func TestRecordPayment_CascadeFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-f", "$100")
	f.svc.Bookings = failingTimeline{f.store.Bookings()}

	_, err := f.svc.RecordPayment(context.Background(), inv.ID, models.PaymentInput{Amount: 100, Method: models.PaymentBank})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	stored, _ := f.svc.GetInvoice(context.Background(), inv.ID)
	if len(stored.Payments) != 0 || stored.PaidAmount != 0 || stored.Status != models.InvoiceUnpaid {
		t.Fatalf("invoice write was not rolled back: %+v", stored)
	}
}

type directTx struct{}

func (directTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (directTx) Atomic() bool { return false }

func TestRecordPayment_BestEffortCascadeWithoutTransactions(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-be", "$100")
	f.svc.Bookings = failingTimeline{f.store.Bookings()}
	f.svc.Tx = directTx{}

	got := pay(t, f, inv.ID, models.PaymentInput{Amount: 100, Method: models.PaymentBank})
	if got.Status != models.InvoicePaid || len(got.Payments) != 1 {
		t.Fatalf("invoice update should commit even if the cascade fails: %+v", got)
	}
}

func TestRecordPayment_MissingBookingIsSkipped(t *testing.T) {
	f := newFixture(t)
	inv := f.generate(t, "booking-gone", "$100")
	f.svc.Bookings = memory.New().Bookings()

	got := pay(t, f, inv.ID, models.PaymentInput{Amount: 100, Method: models.PaymentBank})
	if got.Status != models.InvoicePaid || len(got.Payments) != 1 {
		t.Fatalf("payment should commit when the booking is gone: %+v", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		current models.InvoiceStatus
		paid    float64
		total   float64
		want    models.InvoiceStatus
	}{
		{"nothing paid", models.InvoiceUnpaid, 0, 100, models.InvoiceUnpaid},
		{"some paid", models.InvoiceUnpaid, 10, 100, models.InvoicePartial},
		{"fully paid", models.InvoicePartial, 100, 100, models.InvoicePaid},
		{"overdue partially paid", models.InvoiceOverdue, 40, 100, models.InvoicePartial},
		{"overdue untouched", models.InvoiceOverdue, 0, 100, models.InvoiceOverdue},
		{"zero total", models.InvoiceUnpaid, 0, 0, models.InvoicePaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.current, tt.paid, tt.total); got != tt.want {
				t.Errorf("DeriveStatus(%s, %v, %v) = %s, want %s", tt.current, tt.paid, tt.total, got, tt.want)
			}
		})
	}
}
