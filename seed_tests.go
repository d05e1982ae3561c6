package main

import (
	"log"

	"pathology-lab-server/database"
	"pathology-lab-server/models"
)

// seedLabTests loads a starter catalog into an empty database so a fresh
// deployment has bookable tests immediately. Existing catalogs are left
// untouched.
func seedLabTests() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.LabTest{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tests := []models.LabTest{
		{
			Title:       "Complete Blood Count (CBC)",
			Category:    "Hematology",
			Description: "Screens overall health and detects a wide range of disorders including anemia and infection",
			Price:       350,
			IsActive:    true,
		},
		{
			Title:       "Lipid Profile",
			Category:    "Biochemistry",
			Description: "Measures cholesterol and triglycerides to assess cardiovascular risk",
			Price:       600,
			IsActive:    true,
		},
		{
			Title:       "Liver Function Test (LFT)",
			Category:    "Biochemistry",
			Description: "Panel of enzymes and proteins to evaluate liver health",
			Price:       550,
			IsActive:    true,
		},
		{
			Title:       "Kidney Function Test (KFT)",
			Category:    "Biochemistry",
			Description: "Urea, creatinine and electrolytes to evaluate kidney function",
			Price:       550,
			IsActive:    true,
		},
		{
			Title:       "HbA1c",
			Category:    "Diabetes",
			Description: "Average blood glucose over the past 3 months",
			Price:       450,
			IsActive:    true,
		},
		{
			Title:       "Fasting Blood Sugar",
			Category:    "Diabetes",
			Description: "Blood glucose after an overnight fast",
			Price:       150,
			IsActive:    true,
		},
		{
			Title:       "Thyroid Profile (T3, T4, TSH)",
			Category:    "Endocrinology",
			Description: "Complete thyroid hormone panel",
			Price:       500,
			IsActive:    true,
		},
		{
			Title:       "Vitamin D (25-OH)",
			Category:    "Vitamins",
			Description: "Measures vitamin D levels for bone and immune health",
			Price:       900,
			IsActive:    true,
		},
		{
			Title:       "Urine Routine & Microscopy",
			Category:    "Pathology",
			Description: "Physical, chemical and microscopic examination of urine",
			Price:       200,
			IsActive:    true,
		},
	}

	if err := db.Create(&tests).Error; err != nil {
		return err
	}

	log.Printf("🌱 Seeded %d lab tests into empty catalog", len(tests))
	return nil
}
