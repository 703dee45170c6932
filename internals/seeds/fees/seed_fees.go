package fees

import (
	"encoding/json"
	"log"
	"os"

	"gorm.io/gorm"

	"hoa_backend/internals/features/finance/fees/dto"
	"hoa_backend/internals/features/finance/fees/model"
)

func SeedFeesFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Reading file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ read seed file: %v", err)
	}

	var seeds []dto.CreateFeeRequest
	if err := json.Unmarshal(file, &seeds); err != nil {
		log.Fatalf("❌ decode seed JSON: %v", err)
	}

	var existing []string
	if err := db.Model(&model.FeeModel{}).Pluck("fee_name", &existing).Error; err != nil {
		log.Fatalf("❌ load fee names: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[n] = true
	}

	var fresh []model.FeeModel
	for _, s := range seeds {
		if err := s.Validate(); err != nil {
			log.Printf("⚠️ fee %q skipped: %v", s.Name, err)
			continue
		}
		m := s.ToModel()
		if seen[m.FeeName] {
			log.Printf("ℹ️ fee %q exists, skipped", m.FeeName)
			continue
		}
		fresh = append(fresh, *m)
	}

	if len(fresh) == 0 {
		log.Println("ℹ️ no new fees to insert")
		return
	}
	if err := db.Create(&fresh).Error; err != nil {
		log.Fatalf("❌ bulk insert fees: %v", err)
	}
	log.Printf("✅ %d fees seeded", len(fresh))
}
