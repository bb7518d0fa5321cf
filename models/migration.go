package models

import (
	"log"

	"github.com/quickops/qcommerce_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&SalesRecord{}, &InventoryRecord{}, &ActionLogEntry{},
	)
	if err != nil {
		log.Println("migration failed:", err)
	}
}
