package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/server/response"
)

func (s *Server) handleCreateCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var request models.CreateCompanyRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		company, apiErr := s.CompanyService.CreateCompany(userID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "company created", http.StatusCreated, company, nil)
	}
}

func (s *Server) handleListMyCompanies() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		memberships, apiErr := s.CompanyService.ListCompaniesForUser(userID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "companies retrieved successfully", http.StatusOK, memberships, nil)
	}
}

func (s *Server) handleGetCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		company, apiErr := s.CompanyService.GetCompany(companyID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "company retrieved successfully", http.StatusOK, company, nil)
	}
}

func (s *Server) handleGetCompanyBySlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		company, apiErr := s.CompanyService.GetCompanyBySlug(c.Param("slug"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "company retrieved successfully", http.StatusOK, company, nil)
	}
}

func (s *Server) handleUpdateCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.UpdateCompanyRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		company, apiErr := s.CompanyService.UpdateCompany(userID, companyID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "company updated", http.StatusOK, company, nil)
	}
}

func (s *Server) handleCheckSlug() gin.HandlerFunc {
	return func(c *gin.Context) {
		check, apiErr := s.CompanyService.CheckSlug(c.Query("slug"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "slug availability", http.StatusOK, check, nil)
	}
}

func (s *Server) handleUploadCompanyLogo() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		fileHeader, err := c.FormFile("logo")
		if err != nil {
			response.JSON(c, "logo file missing", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		logoURL, apiErr := s.MediaService.UploadCompanyLogo(userID, companyID, fileHeader)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "logo updated successfully", http.StatusOK, gin.H{"logo_url": logoURL}, nil)
	}
}

func (s *Server) handleListMembers() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		members, apiErr := s.CompanyService.ListMembers(userID, companyID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "members retrieved successfully", http.StatusOK, members, nil)
	}
}

func (s *Server) handleRemoveMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}
		memberID, err := parseUintParam(c, "userID")
		if err != nil {
			response.JSON(c, "invalid user id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		if apiErr := s.CompanyService.RemoveMember(userID, companyID, memberID); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "member removed", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleTransferOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.TransferOwnershipRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if apiErr := s.CompanyService.TransferOwnership(userID, companyID, request.NewOwnerID); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "ownership transferred", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleInviteMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.InviteMemberRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		inv, apiErr := s.CompanyService.InviteMember(userID, companyID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "invitation sent", http.StatusCreated, inv, nil)
	}
}

func (s *Server) handleListCompanyInvitations() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		invs, apiErr := s.CompanyService.ListInvitations(userID, companyID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "invitations retrieved successfully", http.StatusOK, invs, nil)
	}
}

func (s *Server) handleListMyInvitations() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, user, apiErr := GetValuesFromContext(c)
		if apiErr != nil {
			respondAndAbort(c, "", apiErr.Status, nil, apiErr)
			return
		}

		invs, apiErr := s.CompanyService.ListMyInvitations(user.Email)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "invitations retrieved successfully", http.StatusOK, invs, nil)
	}
}

func (s *Server) handleRespondToInvitation() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, user, apiErr := GetValuesFromContext(c)
		if apiErr != nil {
			respondAndAbort(c, "", apiErr.Status, nil, apiErr)
			return
		}

		invitationID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid invitation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.InvitationRespondRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if apiErr := s.CompanyService.RespondToInvitation(user.ID, user.Email, invitationID, request.Status); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "invitation updated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleCancelInvitation() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		invitationID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid invitation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		if apiErr := s.CompanyService.CancelInvitation(userID, invitationID); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "invitation cancelled", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleCreateProduction() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.CreateProductionRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		production, apiErr := s.CompanyService.CreateProduction(userID, companyID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "production created", http.StatusCreated, production, nil)
	}
}

func (s *Server) handleListProductions() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		productions, apiErr := s.CompanyService.ListProductions(companyID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "productions retrieved successfully", http.StatusOK, productions, nil)
	}
}

func (s *Server) handleGetProduction() gin.HandlerFunc {
	return func(c *gin.Context) {
		productionID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid production id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		production, apiErr := s.CompanyService.GetProduction(productionID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "production retrieved successfully", http.StatusOK, production, nil)
	}
}

func (s *Server) handleUpdateProduction() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		productionID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid production id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.CreateProductionRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		production, apiErr := s.CompanyService.UpdateProduction(userID, productionID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "production updated", http.StatusOK, production, nil)
	}
}
