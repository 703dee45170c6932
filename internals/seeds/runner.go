package seeds

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hoa_backend/internals/configs"
	"hoa_backend/internals/constants"
	residentModel "hoa_backend/internals/features/households/residents/model"
	helper "hoa_backend/internals/helpers"
	"hoa_backend/internals/helpers/txref"
	"hoa_backend/internals/seeds/fees"
	"hoa_backend/internals/seeds/residents"
)

func RunAllSeeds(db *gorm.DB, refs *txref.Generator) {
	residents.SeedResidentsFromJSON(db, refs, "internals/seeds/residents/data_residents.json")
	fees.SeedFeesFromJSON(db, "internals/seeds/fees/data_fees.json")

	printDevTokens(db)
}

// printDevTokens logs short-lived tokens so the API can be exercised without
// an identity provider. Never enabled in production.
func printDevTokens(db *gorm.DB) {
	if configs.JWTSecret == "" || configs.GetEnv("RAILWAY_ENVIRONMENT") != "" {
		return
	}
	if tok, err := helper.IssueAccessToken(configs.JWTSecret, uuid.New(), constants.RoleAdmin, 24*time.Hour); err == nil {
		log.Printf("🔑 admin token: %s", tok)
	}

	var holders []residentModel.ResidentModel
	db.Where("resident_is_account_holder = ? AND resident_is_active = ?", true, true).
		Order("resident_block, resident_lot").Find(&holders)
	for _, h := range holders {
		tok, err := helper.IssueAccessToken(configs.JWTSecret, h.ResidentID, constants.RoleResident, 24*time.Hour)
		if err != nil {
			continue
		}
		log.Printf("🔑 %s (%s): %s", h.FullName(), h.Unit(), tok)
	}
}
