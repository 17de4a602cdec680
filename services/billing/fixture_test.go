package billing

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"agencyhub/database/repository/memory"
	"agencyhub/models"
	"agencyhub/utils"
)

type fixture struct {
	store *memory.Store
	svc   *DefaultBillingService
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store: store,
		now:   time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC),
	}
	f.svc = &DefaultBillingService{
		Invoices: store.Invoices(),
		Bookings: store.Bookings(),
		Services: store.Services(),
		Tx:       store,
		Locker:   utils.NewLocalLocker(),
		Terms:    DefaultTerms("USD", 30),
		Now:      func() time.Time { return f.now },
	}
	return f
}

// seed stores a booking and a service with the given process steps and returns their ids.
func (f *fixture) seed(t *testing.T, bookingID, price string, steps ...string) (string, string) {
	t.Helper()
	ctx := context.Background()

	serviceID := "svc-" + bookingID
	service := &models.Service{ID: serviceID, Title: "Web Development"}
	for i, step := range steps {
		service.Process = append(service.Process, models.ProcessStep{
			Step:        step,
			Description: fmt.Sprintf("phase %d", i+1),
		})
	}
	if err := f.store.Services().Create(ctx, service); err != nil {
		t.Fatalf("seed service: %v", err)
	}

	booking := &models.Booking{
		ID:           bookingID,
		ClientID:     "client-1",
		ClientName:   "Rahim Uddin",
		ClientEmail:  "rahim@example.com",
		ClientPhone:  "+8801700000000",
		ServiceID:    serviceID,
		ServiceTitle: "Web Development",
		PackageName:  "Business",
		PackagePrice: price,
		Status:       "Confirmed",
		CreatedAt:    f.now,
		UpdatedAt:    f.now,
	}
	if err := f.store.Bookings().Create(ctx, booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return bookingID, serviceID
}

func (f *fixture) generate(t *testing.T, bookingID, price string, steps ...string) *models.Invoice {
	t.Helper()
	b, s := f.seed(t, bookingID, price, steps...)
	inv, err := f.svc.GenerateInvoice(context.Background(), b, s)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	return inv
}

func (f *fixture) booking(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.store.Bookings().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	return b
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertBalanced(t *testing.T, inv *models.Invoice) {
	t.Helper()
	if !approx(inv.PaidAmount+inv.RemainingAmount, inv.TotalAmount) {
		t.Fatalf("paid %v + remaining %v != total %v", inv.PaidAmount, inv.RemainingAmount, inv.TotalAmount)
	}
}
