package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// RequireTables fails when any of the named dataset tables is missing.
func RequireTables(d *gorm.DB, tables ...string) error {
	var missing []string
	for _, t := range tables {
		if !d.Migrator().HasTable(t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("dataset is missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}
