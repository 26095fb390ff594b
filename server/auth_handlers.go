package server

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	errs "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/server/response"
)

const oauthStateCookie = "oauthstate"

func (s *Server) handleRequestMagicLink() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.MagicLinkRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if apiErr := s.AuthService.RequestMagicLink(&request); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "magic link sent", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleVerifyMagicLink() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.MagicLinkVerifyRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		loginResponse, apiErr := s.AuthService.VerifyMagicLink(request.Token)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, loginResponse, nil)
	}
}

func (s *Server) HandleGoogleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := generateOauthState()
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, errs.ErrInternalServerError)
			return
		}
		c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
		c.Redirect(http.StatusTemporaryRedirect, s.AuthService.GoogleLoginURL(state))
	}
}

func (s *Server) HandleGoogleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		wantState, err := c.Cookie(oauthStateCookie)
		if err != nil || wantState == "" || c.Query("state") != wantState {
			response.JSON(c, "invalid oauth state", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		code := c.Query("code")
		if code == "" {
			response.JSON(c, "missing authorization code", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		loginResponse, apiErr := s.AuthService.GoogleCallback(code)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, loginResponse, nil)
	}
}

// handleLogout invalidates the access token and marks the user offline.
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, user, apiErr := GetValuesFromContext(c)
		if apiErr != nil {
			respondAndAbort(c, "", apiErr.Status, nil, apiErr)
			return
		}

		if apiErr := s.AuthService.Logout(user.Email, token); apiErr != nil {
			response.JSON(c, "logout failed", apiErr.Status, nil, apiErr)
			return
		}
		if err := s.AuthRepository.SetUserOnline(user.ID, false); err != nil {
			log.Printf("logout: set user %d offline: %v", user.ID, err)
		}
		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, user, apiErr := GetValuesFromContext(c)
		if apiErr != nil {
			respondAndAbort(c, "", apiErr.Status, nil, apiErr)
			return
		}

		data := gin.H{
			"profile":    user.ToResponse(),
			"bio":        user.Bio,
			"avatar_url": user.AvatarURL,
		}
		response.JSON(c, "user profile retrieved successfully", http.StatusOK, data, nil)
	}
}

func (s *Server) handleEditUserProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var details models.EditProfileRequest
		if err := decode(c, &details); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if apiErr := s.AuthService.EditUserProfile(userID, &details); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "profile updated successfully", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUploadAvatar() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			response.JSON(c, "avatar file missing", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		avatarURL, thumbnailURL, apiErr := s.MediaService.UploadAvatar(userID, fileHeader)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		data := gin.H{
			"avatar_url":    avatarURL,
			"thumbnail_url": thumbnailURL,
		}
		response.JSON(c, "avatar updated successfully", http.StatusOK, data, nil)
	}
}

func (s *Server) handleGetAllUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, apiErr := s.AuthService.GetAllUsers()
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		out := make([]models.UserResponse, 0, len(users))
		for i := range users {
			out = append(out, users[i].ToResponse())
		}
		response.JSON(c, "users retrieved successfully", http.StatusOK, out, nil)
	}
}

func generateOauthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
