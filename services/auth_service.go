package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	apiError "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/queue"
	"github.com/filmcrewhq/filmcrew/services/jwt"
	"github.com/filmcrewhq/filmcrew/services/utils"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const magicLinkValidity = 15 * time.Minute

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthService owns sign-in (magic link + Google OAuth), profile reads and
// edits, and token revocation.
type AuthService interface {
	RequestMagicLink(request *models.MagicLinkRequest) *apiError.Error
	VerifyMagicLink(token string) (*models.LoginResponse, *apiError.Error)
	GoogleLoginURL(state string) string
	GoogleCallback(code string) (*models.LoginResponse, *apiError.Error)
	GetUserProfile(userID uint) (*models.User, *apiError.Error)
	EditUserProfile(userID uint, details *models.EditProfileRequest) *apiError.Error
	Logout(email, token string) *apiError.Error
	GetAllUsers() ([]models.User, *apiError.Error)
}

type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	mail     queue.Mailer
	queue    *queue.Client
}

// NewAuthService instantiates an authService. queueClient may be nil, in
// which case emails are sent inline through mail.
func NewAuthService(authRepo db.AuthRepository, mail queue.Mailer, queueClient *queue.Client, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
		mail:     mail,
		queue:    queueClient,
	}
}

// RequestMagicLink finds or creates the account for the email and mails a
// single-use sign-in link. Only a bcrypt digest of the secret is stored; the
// link token is "{id}.{secret}".
func (s *authService) RequestMagicLink(request *models.MagicLinkRequest) *apiError.Error {
	if err := models.CleanInput(request); err != nil {
		return apiError.ErrBadRequest
	}
	email := strings.ToLower(strings.TrimSpace(request.Email))
	if email == "" {
		return apiError.ErrBadRequest
	}

	user, err := s.authRepo.FindUserByEmail(email)
	if err != nil {
		user, err = s.createUserForEmail(email)
		if err != nil {
			log.Printf("magic link: create user for %s: %v", email, err)
			return apiError.ErrInternalServerError
		}
	}

	secret, err := utils.RandomToken(32)
	if err != nil {
		return apiError.ErrInternalServerError
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return apiError.ErrInternalServerError
	}

	token := &models.MagicLinkToken{
		UserID:    user.ID,
		Digest:    string(digest),
		ExpiresAt: time.Now().Add(magicLinkValidity),
	}
	if err := s.authRepo.CreateMagicLinkToken(token); err != nil {
		log.Printf("magic link: store token: %v", err)
		return apiError.ErrInternalServerError
	}

	link := fmt.Sprintf("%s/auth/verify?token=%d.%s", s.Config.AppUrl, token.ID, secret)
	if s.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.queue.EnqueueEmail(ctx, queue.EmailPayload{
			To:   email,
			Kind: queue.EmailKindMagicLink,
			Link: link,
		})
	} else {
		_, err = s.mail.SendMagicLink(email, link)
	}
	if err != nil {
		log.Printf("magic link: deliver to %s: %v", email, err)
		return apiError.ErrInternalServerError
	}
	return nil
}

// VerifyMagicLink consumes a mailed token and returns the session token pair.
// Expired, already-consumed or malformed tokens all come back as the same 401
// so the response leaks nothing about which check failed.
func (s *authService) VerifyMagicLink(token string) (*models.LoginResponse, *apiError.Error) {
	invalid := apiError.New("invalid or expired link", http.StatusUnauthorized)

	id, secret, ok := splitMagicToken(token)
	if !ok {
		return nil, invalid
	}

	row, err := s.authRepo.FindMagicLinkToken(id)
	if err != nil {
		return nil, invalid
	}
	if row.ConsumedAt != nil || time.Now().After(row.ExpiresAt) {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.Digest), []byte(secret)); err != nil {
		return nil, invalid
	}
	if err := s.authRepo.ConsumeMagicLinkToken(row.ID); err != nil {
		// A concurrent verify won the consume race.
		return nil, invalid
	}

	user, err := s.authRepo.FindUserByID(row.UserID)
	if err != nil {
		return nil, apiError.ErrUnauthorized
	}
	if !user.IsEmailActive {
		user.IsEmailActive = true
		if err := s.authRepo.UpdateUser(user); err != nil {
			log.Printf("magic link: activate user %d: %v", user.ID, err)
		}
	}
	return s.loginResponse(user)
}

func (s *authService) GoogleLoginURL(state string) string {
	return s.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GoogleCallback exchanges the authorization code, resolves the Google
// profile and signs the user in, creating the account on first sight.
func (s *authService) GoogleCallback(code string) (*models.LoginResponse, *apiError.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	oauthToken, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		log.Printf("google auth: exchange code: %v", err)
		return nil, apiError.ErrUnauthorized
	}

	profile, err := fetchGoogleProfile(ctx, s.oauthConfig(), oauthToken)
	if err != nil {
		log.Printf("google auth: fetch profile: %v", err)
		return nil, apiError.ErrUnauthorized
	}
	if profile.Email == "" || !profile.VerifiedEmail {
		return nil, apiError.New("google account email not verified", http.StatusUnauthorized)
	}

	email := strings.ToLower(profile.Email)
	user, repoErr := s.authRepo.FindUserByEmail(email)
	if repoErr != nil {
		user, repoErr = s.createGoogleUser(profile)
		if repoErr != nil {
			log.Printf("google auth: create user for %s: %v", email, repoErr)
			return nil, apiError.ErrInternalServerError
		}
	}
	return s.loginResponse(user)
}

func (s *authService) GetUserProfile(userID uint) (*models.User, *apiError.Error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		return nil, apiError.FromDB(err, "user not found")
	}
	return user, nil
}

func (s *authService) EditUserProfile(userID uint, details *models.EditProfileRequest) *apiError.Error {
	if err := models.CleanInput(details); err != nil {
		return apiError.ErrBadRequest
	}
	if details.Username != "" {
		if existing, err := s.authRepo.FindUserByUsername(details.Username); err == nil && existing.ID != userID {
			return apiError.New("username already taken", http.StatusConflict)
		}
	}
	if err := s.authRepo.EditUserProfile(userID, details); err != nil {
		return apiError.FromDB(err, "user not found")
	}
	return nil
}

// Logout blacklists the presented access token until it expires on its own.
func (s *authService) Logout(email, token string) *apiError.Error {
	blacklist := &models.Blacklist{
		Email: email,
		Token: token,
	}
	if err := s.authRepo.AddToBlackList(blacklist); err != nil {
		log.Printf("logout: blacklist token: %v", err)
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *authService) GetAllUsers() ([]models.User, *apiError.Error) {
	users, err := s.authRepo.GetAllUsers()
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return users, nil
}

func (s *authService) loginResponse(user *models.User) (*models.LoginResponse, *apiError.Error) {
	role, err := s.authRepo.FindRoleByID(user.RoleID)
	roleName := models.RoleUser
	if err == nil {
		roleName = role.Name
	}

	accessToken, refreshToken, err := jwt.GenerateTokenPair(user.Email, s.Config.JWTSecret, user.ID, roleName)
	if err != nil {
		log.Printf("auth: generate token pair: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	resp := user.ToResponse()
	resp.RoleName = roleName
	return &models.LoginResponse{
		UserResponse: resp,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) createUserForEmail(email string) (*models.User, error) {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	username := utils.Slugify(local)
	if username == "" {
		username = "crew"
	}
	if _, err := s.authRepo.FindUserByUsername(username); err == nil {
		suffix, randErr := utils.RandomToken(3)
		if randErr != nil {
			return nil, randErr
		}
		username = fmt.Sprintf("%s-%s", username, suffix)
	}

	return s.authRepo.CreateUser(&models.User{
		Fullname: local,
		Username: username,
		Email:    email,
	})
}

func (s *authService) createGoogleUser(profile *models.GoogleAuthResponse) (*models.User, error) {
	user, err := s.createUserForEmail(strings.ToLower(profile.Email))
	if err != nil {
		return nil, err
	}
	if profile.Name != "" {
		user.Fullname = profile.Name
	}
	user.IsSocial = true
	user.IsEmailActive = true
	if profile.Picture != "" {
		user.AvatarURL = profile.Picture
		user.ThumbNailURL = profile.Picture
	}
	if err := s.authRepo.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.Config.GoogleClientID,
		ClientSecret: s.Config.GoogleClientSecret,
		RedirectURL:  s.Config.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

func fetchGoogleProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*models.GoogleAuthResponse, error) {
	resp, err := conf.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body)
	}

	profile := &models.GoogleAuthResponse{}
	if err := json.NewDecoder(resp.Body).Decode(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func splitMagicToken(token string) (uint, string, bool) {
	parts := strings.SplitN(strings.TrimSpace(token), ".", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint(id), parts[1], true
}
