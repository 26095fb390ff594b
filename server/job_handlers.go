package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/server/response"
)

func (s *Server) handleCreateJob() gin.HandlerFunc {
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

		var request models.CreateJobRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		job, apiErr := s.JobService.CreateJob(userID, companyID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "job created", http.StatusCreated, job, nil)
	}
}

func (s *Server) handleGetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid job id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		job, apiErr := s.JobService.GetJob(jobID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "job retrieved successfully", http.StatusOK, job, nil)
	}
}

func (s *Server) handleUpdateJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		jobID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid job id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.UpdateJobRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		job, apiErr := s.JobService.UpdateJob(userID, jobID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "job updated", http.StatusOK, job, nil)
	}
}

// handleListJobs serves the public job board. Filtering, ordering and the
// total all run server-side so pages always agree with the reported count.
func (s *Server) handleListJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.JobFilter{
			Department: c.Query("department"),
			Location:   c.Query("location"),
			Status:     models.JobStatus(c.Query("status")),
		}
		if companyIDStr := c.Query("company_id"); companyIDStr != "" {
			companyID, err := uuid.Parse(companyIDStr)
			if err != nil {
				response.JSON(c, "invalid company id", http.StatusBadRequest, nil, errs.ErrBadRequest)
				return
			}
			filter.CompanyID = &companyID
		}
		filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		filter.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

		list, apiErr := s.JobService.ListJobs(filter)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "jobs retrieved successfully", http.StatusOK, list, nil)
	}
}

func (s *Server) handleApplyToJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		jobID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid job id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.ApplyRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		app, apiErr := s.JobService.Apply(userID, jobID, &request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "application submitted", http.StatusCreated, app, nil)
	}
}

func (s *Server) handleListApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		jobID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid job id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		apps, apiErr := s.JobService.ListApplications(userID, jobID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "applications retrieved successfully", http.StatusOK, apps, nil)
	}
}

func (s *Server) handleListMyApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		apps, apiErr := s.JobService.ListMyApplications(userID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "applications retrieved successfully", http.StatusOK, apps, nil)
	}
}

func (s *Server) handleUpdateApplicationStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		applicationID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid application id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.ApplicationStatusRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if apiErr := s.JobService.UpdateApplicationStatus(userID, applicationID, request.Status); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "application updated", http.StatusOK, nil, nil)
	}
}
