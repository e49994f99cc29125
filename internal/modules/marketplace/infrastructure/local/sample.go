package local

import (
	"context"
	"fmt"

	"github.com/udyami/marketplace/internal/modules/marketplace/domain"
)

// InitializeSampleData seeds a buyer, two sellers with their services and three
// open jobs. It does nothing once any user exists.
func (s *Store) InitializeSampleData(ctx context.Context) error {
	users, _ := s.Users(ctx)
	if len(users) > 0 {
		return nil
	}
	s.logger.Info("initializing sample data")

	buyerID, err := s.CreateUser(ctx, domain.User{
		PhoneNumber: "919876543210", Name: "Amit Sharma", Role: domain.RoleBuyer, Language: "en", Location: "Bangalore",
	})
	if err != nil {
		return fmt.Errorf("seeding buyer: %w", err)
	}

	raviID, err := s.CreateUser(ctx, domain.User{
		PhoneNumber: "919876543211", Name: "Ravi Kumar", Role: domain.RoleSeller, Language: "en", Location: "Mumbai",
	})
	if err != nil {
		return fmt.Errorf("seeding seller user: %w", err)
	}
	if _, err := s.CreateSeller(ctx, domain.Seller{
		UserID:   raviID,
		Name:     "Ravi Kumar",
		Skills:   []string{"painting", "wall_design"},
		Location: "Bangalore",
		Bio:      "Professional painter with 5 years of experience",
	}); err != nil {
		return fmt.Errorf("seeding seller: %w", err)
	}

	jobs := []domain.Job{
		{
			Title:       "Living Room Paint Job",
			Description: "Need to paint living room and bedroom walls with quality paint. Includes wall preparation and primer.",
			Skill:       "painting",
			BudgetMin:   15000,
			BudgetMax:   20000,
			Timeline:    "3 days",
			Location:    "Koramangala, Bangalore",
		},
		{
			Title:       "Kitchen Plumbing Repair",
			Description: "Fix leaking pipes and install new faucet in kitchen. Emergency repair needed.",
			Skill:       "plumbing",
			BudgetMin:   8000,
			BudgetMax:   12000,
			Timeline:    "1 day",
			Location:    "Whitefield, Bangalore",
		},
		{
			Title:       "Custom Wooden Furniture",
			Description: "Design and build custom dining table and chairs for 6 people.",
			Skill:       "carpentry",
			BudgetMin:   35000,
			BudgetMax:   45000,
			Timeline:    "2 weeks",
			Location:    "Indiranagar, Bangalore",
		},
	}
	for _, j := range jobs {
		j.BuyerID = buyerID
		j.PostedBy = "Amit Sharma"
		if _, err := s.CreateJob(ctx, j); err != nil {
			return fmt.Errorf("seeding job %q: %w", j.Title, err)
		}
	}

	raviServices := []domain.Service{
		{Title: "Interior Wall Painting", Description: "Professional interior painting with premium quality paints and finish.", Price: "Starting ₹50/sq ft", Category: "Painting"},
		{Title: "Custom Wall Designs", Description: "Creative wall designs including texture painting and artistic patterns.", Price: "Starting ₹200/sq ft", Category: "Painting"},
		{Title: "Color Consultation", Description: "Professional color consultation for your home interior design.", Price: "₹2,000 per consultation", Category: "Design"},
	}
	if err := s.seedServices(ctx, raviID, raviServices); err != nil {
		return err
	}

	priyaID, err := s.CreateUser(ctx, domain.User{
		PhoneNumber: "919876543212", Name: "Priya Sharma", Role: domain.RoleSeller, Language: "en", Location: "Delhi",
	})
	if err != nil {
		return fmt.Errorf("seeding seller user: %w", err)
	}
	if _, err := s.CreateSeller(ctx, domain.Seller{
		UserID:   priyaID,
		Name:     "Priya Sharma",
		Skills:   []string{"plumbing", "electrical"},
		Location: "Delhi",
		Bio:      "Expert plumber and electrician with 3 years experience",
	}); err != nil {
		return fmt.Errorf("seeding seller: %w", err)
	}

	priyaServices := []domain.Service{
		{Title: "Plumbing Repair", Description: "Complete plumbing repair and maintenance services.", Price: "Starting ₹300/hour", Category: "Plumbing"},
		{Title: "Electrical Installation", Description: "Professional electrical installation and wiring services.", Price: "Starting ₹500/hour", Category: "Electrical"},
	}
	if err := s.seedServices(ctx, priyaID, priyaServices); err != nil {
		return err
	}

	s.logger.Info("sample data initialized")
	return nil
}

// Services are keyed by the seller's user id, matching how the app creates them.
func (s *Store) seedServices(ctx context.Context, sellerUserID string, services []domain.Service) error {
	for _, svc := range services {
		svc.SellerID = sellerUserID
		if _, err := s.CreateService(ctx, svc); err != nil {
			return fmt.Errorf("seeding service %q: %w", svc.Title, err)
		}
	}
	return nil
}
