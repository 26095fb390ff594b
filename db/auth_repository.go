package db

import (
	"fmt"
	"log"
	"time"

	apiError "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id uint) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	UpdateUser(user *models.User) error
	EditUserProfile(userID uint, details *models.EditProfileRequest) error
	UpsertUserAvatar(userID uint, avatarURL, thumbnailURL string) error
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
	CreateMagicLinkToken(token *models.MagicLinkToken) error
	FindMagicLinkToken(id uint) (*models.MagicLinkToken, error)
	ConsumeMagicLinkToken(id uint) error
	FindRoleByName(name string) (*models.Role, error)
	FindRoleByID(roleID uuid.UUID) (*models.Role, error)
	GetAllUsers() ([]models.User, error)
	SetUserOnline(userID uint, online bool) error
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		log.Println("CreateUser error: user is nil")
		return nil, errors.New("user is nil")
	}

	if user.RoleID == uuid.Nil {
		defaultRole, err := a.FindRoleByName(models.RoleUser)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				defaultRole = &models.Role{ID: uuid.New(), Name: models.RoleUser}
				if err := a.DB.Create(defaultRole).Error; err != nil {
					log.Printf("CreateUser error creating default role: %v", err)
					return nil, err
				}
			} else {
				log.Printf("CreateUser error fetching default role: %v", err)
				return nil, err
			}
		}
		user.RoleID = defaultRole.ID
	}

	if result := a.DB.Create(user); result.Error != nil {
		log.Printf("CreateUser error: %v", result.Error)
		return nil, result.Error
	}

	return user, nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	err := a.DB.Preload("Role").Where("email = ?", email).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	user := &models.User{}
	err := a.DB.Preload("Role").First(user, id).Error
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, fmt.Errorf("user %d: %w", id, apiError.InActiveUserError)
	}
	return user, nil
}

func (a *authRepo) FindUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := a.DB.Preload("Role").Where("username = ?", username).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authRepo) UpdateUser(user *models.User) error {
	return a.DB.Save(user).Error
}

func (a *authRepo) EditUserProfile(userID uint, details *models.EditProfileRequest) error {
	updates := map[string]interface{}{}
	if details.Fullname != "" {
		updates["fullname"] = details.Fullname
	}
	if details.Username != "" {
		updates["username"] = details.Username
	}
	if details.Headline != "" {
		updates["headline"] = details.Headline
	}
	if details.Bio != "" {
		updates["bio"] = details.Bio
	}
	if details.Department != "" {
		updates["department"] = details.Department
	}
	if details.Location != "" {
		updates["location"] = details.Location
	}
	if len(updates) == 0 {
		return nil
	}
	result := a.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not update profile")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *authRepo) UpsertUserAvatar(userID uint, avatarURL, thumbnailURL string) error {
	result := a.DB.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"avatar_url":     avatarURL,
		"thumb_nail_url": thumbnailURL,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not update avatar")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *authRepo) AddToBlackList(blacklist *models.Blacklist) error {
	return a.DB.Create(blacklist).Error
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	a.DB.Model(&models.Blacklist{}).Where("token = ?", token).Count(&count)
	return count > 0
}

func (a *authRepo) CreateMagicLinkToken(token *models.MagicLinkToken) error {
	return a.DB.Create(token).Error
}

func (a *authRepo) FindMagicLinkToken(id uint) (*models.MagicLinkToken, error) {
	token := &models.MagicLinkToken{}
	if err := a.DB.First(token, id).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (a *authRepo) ConsumeMagicLinkToken(id uint) error {
	now := time.Now()
	result := a.DB.Model(&models.MagicLinkToken{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("token already consumed")
	}
	return nil
}

func (a *authRepo) FindRoleByName(name string) (*models.Role, error) {
	role := &models.Role{}
	if err := a.DB.Where("name = ?", name).First(role).Error; err != nil {
		return nil, fmt.Errorf("could not find role %q: %w", name, err)
	}
	return role, nil
}

func (a *authRepo) FindRoleByID(roleID uuid.UUID) (*models.Role, error) {
	role := &models.Role{}
	if err := a.DB.First(role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("could not find role: %v", err)
	}
	return role, nil
}

func (a *authRepo) GetAllUsers() ([]models.User, error) {
	var users []models.User
	if err := a.DB.Preload("Role").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "could not list users")
	}
	return users, nil
}

func (a *authRepo) SetUserOnline(userID uint, online bool) error {
	return a.DB.Model(&models.User{}).Where("id = ?", userID).Update("online", online).Error
}
