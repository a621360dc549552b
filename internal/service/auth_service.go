package service

import (
	"errors"
	"evalmate_backend/internal/config"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo    *repository.UserRepository
	ProfileRepo *repository.ProfileRepository
	Cfg         *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, profileRepo *repository.ProfileRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Cfg:         cfg,
	}
}

// RegisterInput carries the registration form: the auth identity plus the
// profile fields collected at signup.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	AccountType model.AccountType
	FirstName   string
	LastName    string
	StudentID   string
	PhoneNumber string
	Institution string
	Department  string
}

// Register creates the User and its Profile in one transaction.
func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	if _, err := s.UserRepo.FindByUsername(in.Username); err == nil {
		return nil, util.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.UserRepo.FindByEmail(in.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     in.AccountType,
	}

	err = s.UserRepo.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := &model.Profile{
			UserID:      user.ID,
			AccountType: in.AccountType,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			Email:       in.Email,
			StudentID:   in.StudentID,
			PhoneNumber: in.PhoneNumber,
			Institution: in.Institution,
			Department:  in.Department,
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.UserRepo.FindByUsername(username)
	if err != nil {
		return "", errors.New("invalid credentials")
	}
	if user.Disabled {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	s.UserRepo.TouchLastLogin(user.ID)

	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}

// GetCurrentProfile resolves the request's profile, the identity every
// domain operation is keyed by.
func (s *AuthService) GetCurrentProfile(c *gin.Context) *model.Profile {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	profile, err := s.ProfileRepo.FindByUserID(claims.UserID)
	if err != nil {
		return nil
	}
	return profile
}
