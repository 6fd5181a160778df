package database

import (
	"parkgate/internal/admission"
	"parkgate/internal/tickets"
	"parkgate/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&tickets.Ticket{},
		&admission.Event{},
	)
}
