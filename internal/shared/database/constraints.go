package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes the automigration does not cover
func MigrateConstraints(db *gorm.DB) error {
	// Audit queries filter per ticket and page by scan time
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_admission_events_ticket_scanned
		ON admission_events (ticket_id, scanned_at DESC);
	`).Error
	if err != nil {
		return err
	}

	// Review queue reads only flagged rows
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_review_flagged
		ON tickets (updated_at DESC) WHERE review_flagged;
	`).Error
	if err != nil {
		return err
	}

	return nil
}
