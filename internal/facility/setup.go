package facility

import (
	"log"

	"github.com/h2operator/h2operator-backend/internal/db"
	"gorm.io/gorm"
)

// Init checks the dataset has every table the service reads and returns a
// store over it. The dataset is loaded out of band; nothing is migrated here.
func Init(d *gorm.DB) *Store {
	if err := db.RequireTables(d, Tables...); err != nil {
		log.Fatal("Failed to verify SDWIS dataset: ", err)
	}

	log.Println("Facility module initialized")
	return NewStore(d)
}
