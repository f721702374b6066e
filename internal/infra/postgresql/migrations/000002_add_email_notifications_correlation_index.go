package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func addEmailNotificationsCorrelationIndex() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_add_email_notifications_correlation_index",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_email_notifications_correlation_id ON email_notifications (correlation_id) WHERE correlation_id <> ''`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP INDEX IF EXISTS idx_email_notifications_correlation_id`).Error
		},
	}
}
