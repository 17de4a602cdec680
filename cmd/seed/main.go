// Command seed loads a sample service and booking into MongoDB so the invoice endpoints can
// be exercised locally. With -hash it prints a bcrypt hash for ADMIN_PASSWORD_HASH instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"agencyhub/config"
	"agencyhub/database"
	bookingRepo "agencyhub/database/repository/booking"
	serviceRepo "agencyhub/database/repository/service"
	"agencyhub/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	hash := flag.String("hash", "", "print the bcrypt hash of this admin password and exit")
	price := flag.String("price", "৳120,000", "package price of the seeded booking")
	flag.Parse()

	if *hash != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(*hash), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(string(b))
		return
	}

	config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(config.AppConfig.DatabaseName)

	service := &models.Service{
		ID:    uuid.NewString(),
		Title: "E-commerce Website",
		Slug:  "e-commerce-website",
		Process: []models.ProcessStep{
			{Step: "Discovery", Description: "Requirements workshop and sitemap"},
			{Step: "Design", Description: "Wireframes and visual design"},
			{Step: "Development", Description: "Storefront, checkout and admin panel"},
			{Step: "Launch", Description: "Deployment, QA and handover"},
		},
	}
	if err := serviceRepo.NewMongoServiceRepo(db).Create(ctx, service); err != nil {
		log.Fatalf("Failed to seed service: %v", err)
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:           uuid.NewString(),
		ClientID:     uuid.NewString(),
		ClientName:   "Sadia Rahman",
		ClientEmail:  "sadia@example.com",
		ClientPhone:  "+8801711000000",
		ServiceID:    service.ID,
		ServiceTitle: service.Title,
		PackageName:  "Business",
		PackagePrice: *price,
		Status:       "Confirmed",
		Timeline: []models.TimelineEntry{
			{Phase: "Booking Confirmed", Status: models.TimelineStatusCompleted, Date: now, Description: "Project booked"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := bookingRepo.NewMongoBookingRepo(db).Create(ctx, booking); err != nil {
		log.Fatalf("Failed to seed booking: %v", err)
	}

	fmt.Printf("Seeded service %s and booking %s\n", service.ID, booking.ID)
	fmt.Printf("Generate its invoice with: {\"bookingId\":%q,\"serviceId\":%q}\n", booking.ID, service.ID)
}
