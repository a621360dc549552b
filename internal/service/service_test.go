package service

import (
	"evalmate_backend/internal/model"
	"evalmate_backend/pkg/database"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, username string, accountType model.AccountType, institution string) *model.Profile {
	t.Helper()
	user := model.User{
		Username: username,
		Email:    username + "@test.edu",
		Password: "hashed",
		Role:     accountType,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	profile := model.Profile{
		UserID:      user.ID,
		AccountType: accountType,
		FirstName:   username,
		LastName:    "Tester",
		Email:       user.Email,
		Institution: institution,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed profile %s: %v", username, err)
	}
	return &profile
}

type formOptions struct {
	courseID string
	privacy  model.Privacy
	passcode string
	dueDate  string
	minTeam  int
	maxTeam  int
}

func seedForm(t *testing.T, db *gorm.DB, owner *model.Profile, title string, opts formOptions) *model.FormTemplate {
	t.Helper()
	if opts.privacy == "" {
		opts.privacy = model.PrivacyInstitution
	}
	fs := model.FormStructure{
		Title: title,
		Sections: []model.FormSection{
			{
				Title: "Teamwork",
				Questions: []model.Question{
					{ID: "effort", Type: model.QuestionRange, Title: "Effort", Min: 1, Max: 5},
					{ID: "comments", Type: model.QuestionText, Title: "Comments"},
				},
			},
		},
		Settings: model.FormSettings{
			CourseID:    opts.courseID,
			DueDate:     opts.dueDate,
			MinTeamSize: opts.minTeam,
			MaxTeamSize: opts.maxTeam,
		},
	}
	raw, err := fs.Marshal()
	if err != nil {
		t.Fatalf("marshal structure: %v", err)
	}
	form := model.FormTemplate{
		Title:       title,
		CourseID:    opts.courseID,
		Institution: owner.Institution,
		CreatedByID: owner.ID,
		Structure:   raw,
		Privacy:     opts.privacy,
		Passcode:    opts.passcode,
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("seed form %s: %v", title, err)
	}
	return &form
}
