// Seeds a development database with a demo faculty account, two student
// accounts and a published evaluation form.
//
// Usage: go run scripts/seed.go

package main

import (
	"evalmate_backend/internal/config"
	"evalmate_backend/internal/model"
	"evalmate_backend/pkg/database"
	"evalmate_backend/pkg/logger"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to parse config file: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	password, _ := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.DefaultCost)

	seedAccount := func(username, email string, accountType model.AccountType, first, last string) *model.Profile {
		user := model.User{
			Username: username,
			Email:    email,
			Password: string(password),
			Role:     accountType,
		}
		if err := db.Where("username = ?", username).FirstOrCreate(&user).Error; err != nil {
			log.Fatalf("Failed to seed user %s: %v", username, err)
		}
		profile := model.Profile{
			UserID:      user.ID,
			AccountType: accountType,
			FirstName:   first,
			LastName:    last,
			Email:       email,
			Institution: "Demo University",
			Department:  "Computer Science",
		}
		if err := db.Where("user_id = ?", user.ID).FirstOrCreate(&profile).Error; err != nil {
			log.Fatalf("Failed to seed profile for %s: %v", username, err)
		}
		return &profile
	}

	faculty := seedAccount("demo_faculty", "faculty@demo.edu", model.Faculty, "Dana", "Rivers")
	seedAccount("demo_student1", "student1@demo.edu", model.Student, "Ari", "Chen")
	seedAccount("demo_student2", "student2@demo.edu", model.Student, "Sam", "Okafor")

	structure := model.FormStructure{
		Title:       "Sprint Retrospective Peer Review",
		Description: "Rate each teammate's contribution to the sprint.",
		Sections: []model.FormSection{
			{
				Title: "Contribution",
				Questions: []model.Question{
					{ID: "effort", Type: "range", Title: "Overall effort", Min: 1, Max: 5},
					{ID: "communication", Type: "radio", Title: "Communication", Options: []string{"Poor", "Adequate", "Excellent"}},
					{ID: "comments", Type: "text", Title: "Anything else?"},
				},
			},
		},
		Settings: model.FormSettings{
			CourseID:      "CS4850",
			MinTeamSize:   2,
			MaxTeamSize:   6,
			Accessibility: string(model.PrivacyInstitution),
			Publish:       true,
		},
	}
	raw, err := structure.Marshal()
	if err != nil {
		log.Fatalf("Failed to marshal form structure: %v", err)
	}

	form := model.FormTemplate{
		Title:       structure.Title,
		Description: structure.Description,
		CourseID:    structure.Settings.CourseID,
		Institution: faculty.Institution,
		CreatedByID: faculty.ID,
		Structure:   raw,
		Privacy:     model.PrivacyInstitution,
	}
	if err := db.Where("title = ? AND created_by_id = ?", form.Title, faculty.ID).FirstOrCreate(&form).Error; err != nil {
		log.Fatalf("Failed to seed form: %v", err)
	}

	log.Println("Seed data ready")
}
