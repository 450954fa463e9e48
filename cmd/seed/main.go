// Seeds the database with sample data for local development: one admin,
// one citizen and six reports across categories and statuses.
package main

import (
	"github.com/rs/zerolog/log"

	"github.com/cleancity/cleancity-be/internal/config"
	"github.com/cleancity/cleancity-be/internal/database"
	"github.com/cleancity/cleancity-be/internal/logger"
	"github.com/cleancity/cleancity-be/internal/models"
	"github.com/cleancity/cleancity-be/internal/services"
)

type sampleReport struct {
	title       string
	description string
	category    string
	location    string
	status      models.Status
}

var sampleReports = []sampleReport{
	{"Overflowing garbage bins at Central Park", "Multiple bins along the main path have been overflowing for days, attracting pests.", "waste", "Central Park, main path", models.StatusPending},
	{"Burst water pipe on Elm Street", "Water has been flooding the sidewalk since last night.", "water", "Elm Street 42", models.StatusInProgress},
	{"Large pothole near the school crossing", "Deep pothole right before the pedestrian crossing, dangerous for cyclists.", "road", "Oak Avenue at 5th", models.StatusPending},
	{"Illegal dumping behind supermarket", "Construction debris dumped next to the recycling containers.", "waste", "Market Street, rear lot", models.StatusResolved},
	{"Low water pressure in the north district", "Several households report barely any water pressure during mornings.", "water", "North district", models.StatusPending},
	{"Faded lane markings on the bridge", "Lane markings are almost invisible at night, causing confusion.", "road", "River bridge, northbound", models.StatusInProgress},
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	var userCount int
	if err := db.QueryRow("SELECT COUNT(1) FROM users").Scan(&userCount); err != nil {
		log.Fatal().Err(err).Msg("Failed to inspect database")
	}
	if userCount > 0 {
		log.Info().Msg("Database already has users, skipping seed")
		return
	}

	userSvc := services.NewUserService(db)
	eventSvc := services.NewEventService(db)
	reportSvc := services.NewReportService(db, eventSvc, nil)

	admin, err := userSvc.Register("Admin User", "admin@cleancity.com", "password123")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin user")
	}
	if _, err := db.Exec("UPDATE users SET role = ? WHERE id = ?", models.RoleAdmin, admin.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to promote admin user")
	}

	citizen, err := userSvc.Register("John Citizen", "john@example.com", "password123")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create citizen user")
	}

	for _, sample := range sampleReports {
		report, err := reportSvc.Create(citizen.ID, services.CreateReportInput{
			Title:       sample.title,
			Description: sample.description,
			Category:    sample.category,
			Location:    sample.location,
		})
		if err != nil {
			log.Fatal().Err(err).Str("title", sample.title).Msg("Failed to create sample report")
		}
		if sample.status != models.StatusPending {
			if _, err := reportSvc.UpdateStatus(report.ID, string(sample.status), models.RoleAdmin); err != nil {
				log.Fatal().Err(err).Str("title", sample.title).Msg("Failed to set sample report status")
			}
		}
	}

	log.Info().Int("reports", len(sampleReports)).Msg("Seed complete")
}
