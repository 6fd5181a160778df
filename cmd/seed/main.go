package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"parkgate/internal/shared/config"
	"parkgate/internal/shared/database"
	"parkgate/internal/tickets"
	"parkgate/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db    *database.DB
	codec *tickets.Codec
}

func main() {
	fmt.Println("🌱 Starting Parkgate Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{
		db:    db,
		codec: tickets.NewCodec([]byte(cfg.Ticket.SigningSecret)),
	}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"admission_events",
		"tickets",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	if _, err := s.SeedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedTickets(); err != nil {
		return fmt.Errorf("failed to seed tickets: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates one account per role for manual testing
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	// Hash password for all users (using "qwerty")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Park", "Admin", "admin@parkgate.dev", users.RoleAdmin},
		{"manager", "Gate", "Manager", "manager@parkgate.dev", users.RoleManager},
		{"staff", "Gate", "Operator", "staff@parkgate.dev", users.RoleStaff},
		{"visitor", "Demo", "Visitor", "visitor@parkgate.dev", users.RoleVisitor},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedTickets creates demo tickets covering the interesting states: a
// settled single-entry ready to scan, a pending one that gates must deny,
// a settled three-visit pass, and a day pass.
func (s *Seeder) SeedTickets() error {
	fmt.Println("  🎟️ Seeding tickets...")

	now := time.Now().UTC()
	dayStart := now.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	ticketsData := []struct {
		ownerRef       string
		entitlement    tickets.Entitlement
		paymentState   tickets.PaymentState
		maxRedemptions int
	}{
		{"order-1001", tickets.EntitlementSingleEntry, tickets.PaymentSettled, 1},
		{"order-1002", tickets.EntitlementSingleEntry, tickets.PaymentPending, 1},
		{"order-1003", tickets.EntitlementMultiEntry, tickets.PaymentSettled, 3},
		{"order-1004", tickets.EntitlementDayPass, tickets.PaymentSettled, 0},
	}

	for _, ticketData := range ticketsData {
		ticket := tickets.Ticket{
			ID:              uuid.New(),
			OwnerRef:        ticketData.ownerRef,
			Entitlement:     ticketData.entitlement,
			ValidFrom:       dayStart,
			ValidUntil:      dayEnd,
			PaymentState:    ticketData.paymentState,
			RedemptionState: tickets.RedemptionIssued,
			MaxRedemptions:  ticketData.maxRedemptions,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		seal, err := s.codec.Seal(&ticket)
		if err != nil {
			return fmt.Errorf("failed to seal ticket %s: %w", ticketData.ownerRef, err)
		}
		ticket.Seal = seal

		if err := s.db.PostgreSQL.Create(&ticket).Error; err != nil {
			return fmt.Errorf("failed to create ticket %s: %w", ticketData.ownerRef, err)
		}

		payload, err := s.codec.Encode(&ticket)
		if err != nil {
			return fmt.Errorf("failed to encode ticket %s: %w", ticketData.ownerRef, err)
		}

		fmt.Printf("    ✅ Created ticket: %s (%s, %s)\n", ticket.ID, ticket.Entitlement, ticket.PaymentState)
		fmt.Printf("       payload: %s\n", payload)
	}

	return nil
}
