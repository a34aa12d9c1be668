package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"attendance-backend/models"
	"attendance-backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// UserService is the user directory: registration, login and profile edits.
type UserService struct {
	DB     *gorm.DB
	Images *ImageStore
}

func NewUserService(db *gorm.DB, images *ImageStore) *UserService {
	return &UserService{DB: db, Images: images}
}

type RegisterInput struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	UserType       string `json:"user_type"`
	Department     string `json:"department"`
	EmployeeID     string `json:"employee_id"`
	ProfilePicture string `json:"profile_picture"` // base64 or data URI
}

// UserPatch is a partial update. Nil fields are left alone.
type UserPatch struct {
	Email          *string `json:"email"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Department     *string `json:"department"`
	EmployeeID     *string `json:"employee_id"`
	ProfilePicture *string `json:"profile_picture"`
	Password       *string `json:"password"`
	UserType       *string `json:"user_type"`
	IsActive       *bool   `json:"is_active"`
}

func validUserType(t string) bool {
	return t == models.UserTypeAdmin || t == models.UserTypeRegular
}

func hashPassword(pw string) (string, error) {
	if len(pw) < minPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUserInput, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) saveProfilePicture(b64 string) (string, error) {
	if s.Images == nil {
		return "", errors.New("image store not configured")
	}
	path, _, err := s.Images.SaveBase64(b64, "profile_pictures")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidUserInput, err)
	}
	return path, nil
}

// Register creates a user. Anyone may register a regular user; only an
// admin actor may create another admin.
func (s *UserService) Register(actor *models.User, in RegisterInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return models.User{}, fmt.Errorf("%w: username required", ErrInvalidUserInput)
	}
	userType := strings.TrimSpace(in.UserType)
	if userType == "" {
		userType = models.UserTypeRegular
	}
	if !validUserType(userType) {
		return models.User{}, fmt.Errorf("%w: unknown user_type %q", ErrInvalidUserInput, userType)
	}
	if userType == models.UserTypeAdmin && (actor == nil || !actor.IsAdmin()) {
		return models.User{}, ErrForbidden
	}

	var taken int64
	if err := s.DB.Model(&models.User{}).Where("username = ?", username).Count(&taken).Error; err != nil {
		return models.User{}, fmt.Errorf("failed to check username: %w", err)
	}
	if taken > 0 {
		return models.User{}, ErrUsernameTaken
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:   username,
		Email:      strings.TrimSpace(in.Email),
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		UserType:   userType,
		Department: strings.TrimSpace(in.Department),
		Password:   hash,
		IsActive:   true,
	}
	user.EmployeeID = utils.PtrString(strings.TrimSpace(in.EmployeeID))
	if strings.TrimSpace(in.ProfilePicture) != "" {
		path, err := s.saveProfilePicture(in.ProfilePicture)
		if err != nil {
			return models.User{}, err
		}
		user.ProfilePicture = path
	}

	if err := s.DB.Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return models.User{}, fmt.Errorf("%w: username or employee_id already in use", ErrUsernameTaken)
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("👤 user %q registered (%s)", user.Username, user.UserType)
	return user, nil
}

// Authenticate checks a username/password pair. Unknown users, wrong
// passwords and inactive accounts all yield ErrInvalidCredentials.
func (s *UserService) Authenticate(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(id uint) (models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update edits a profile. Users may edit themselves; user_type and
// is_active are admin-only.
func (s *UserService) Update(actor models.User, id uint, patch UserPatch) (models.User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return models.User{}, ErrForbidden
	}
	if (patch.UserType != nil || patch.IsActive != nil) && !actor.IsAdmin() {
		return models.User{}, ErrForbidden
	}

	user, err := s.GetByID(id)
	if err != nil {
		return models.User{}, err
	}

	updates := map[string]interface{}{}
	if patch.Email != nil {
		updates["email"] = strings.TrimSpace(*patch.Email)
	}
	if patch.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*patch.LastName)
	}
	if patch.Department != nil {
		updates["department"] = strings.TrimSpace(*patch.Department)
	}
	if patch.EmployeeID != nil {
		if eid := strings.TrimSpace(*patch.EmployeeID); eid != "" {
			updates["employee_id"] = eid
		} else {
			updates["employee_id"] = nil
		}
	}
	if patch.UserType != nil {
		if !validUserType(*patch.UserType) {
			return models.User{}, fmt.Errorf("%w: unknown user_type %q", ErrInvalidUserInput, *patch.UserType)
		}
		updates["user_type"] = *patch.UserType
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.Password != nil {
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return models.User{}, err
		}
		updates["password"] = hash
	}
	if patch.ProfilePicture != nil && strings.TrimSpace(*patch.ProfilePicture) != "" {
		path, err := s.saveProfilePicture(*patch.ProfilePicture)
		if err != nil {
			return models.User{}, err
		}
		updates["profile_picture"] = path
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&user).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return models.User{}, fmt.Errorf("%w: employee_id already in use", ErrInvalidUserInput)
			}
			return models.User{}, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return s.GetByID(id)
}
