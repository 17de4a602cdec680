package memory

import (
	"slices"
	"time"

	"agencyhub/models"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneInvoice(in *models.Invoice) *models.Invoice {
	out := *in
	out.PaidDate = cloneTime(in.PaidDate)
	out.Milestones = make([]models.Milestone, len(in.Milestones))
	for i, m := range in.Milestones {
		m.PaidDate = cloneTime(m.PaidDate)
		out.Milestones[i] = m
	}
	out.Payments = make([]models.PaymentRecord, len(in.Payments))
	for i, p := range in.Payments {
		p.VerificationDate = cloneTime(p.VerificationDate)
		out.Payments[i] = p
	}
	out.PaymentMethods = slices.Clone(in.PaymentMethods)
	return &out
}

func cloneBooking(in *models.Booking) *models.Booking {
	out := *in
	out.Timeline = slices.Clone(in.Timeline)
	if out.Timeline == nil {
		out.Timeline = []models.TimelineEntry{}
	}
	return &out
}

func cloneService(in *models.Service) *models.Service {
	out := *in
	out.Process = slices.Clone(in.Process)
	return &out
}
