package models

import (
	"log"

	"github.com/catalogodata/catalogo_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Session{},
		&NcmCode{},
		&ReferenceSyncRun{}, &ReferenceSyncError{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
