package residents

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"gorm.io/gorm"

	"hoa_backend/internals/features/households/residents/dto"
	"hoa_backend/internals/features/households/residents/model"
	"hoa_backend/internals/features/households/residents/service"
	"hoa_backend/internals/helpers/txref"
)

// SeedResidentsFromJSON inserts residents whose (block, lot, first, last)
// is not yet present. Account holders get an account number.
func SeedResidentsFromJSON(db *gorm.DB, refs *txref.Generator, filePath string) {
	log.Println("📥 Reading file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ read seed file: %v", err)
	}

	var seeds []dto.CreateResidentRequest
	if err := json.Unmarshal(file, &seeds); err != nil {
		log.Fatalf("❌ decode seed JSON: %v", err)
	}

	svc := service.NewResidentService(db, refs)
	inserted := 0
	for _, s := range seeds {
		m := s.ToModel()

		var count int64
		db.Model(&model.ResidentModel{}).
			Where("resident_block = ? AND resident_lot = ? AND resident_first_name = ? AND resident_last_name = ?",
				m.ResidentBlock, m.ResidentLot, m.ResidentFirstName, m.ResidentLastName).
			Count(&count)
		if count > 0 {
			log.Printf("ℹ️ resident %s (%s) exists, skipped", m.FullName(), m.Unit())
			continue
		}

		if err := svc.Create(context.Background(), m, s.IsAccountHolder); err != nil {
			log.Printf("❌ seed resident %s: %v", m.FullName(), err)
			continue
		}
		inserted++
	}
	log.Printf("✅ %d residents seeded", inserted)
}
