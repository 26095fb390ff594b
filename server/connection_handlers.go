package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	errs "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/server/response"
)

func (s *Server) handleRequestConnection() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var request models.ConnectionRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		conn, apiErr := s.ConnectionService.RequestConnection(userID, request.RecipientID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "connection requested", http.StatusCreated, conn, nil)
	}
}

func (s *Server) handleRespondToConnection() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		connectionID, err := parseUintParam(c, "id")
		if err != nil {
			response.JSON(c, "invalid connection id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.ConnectionRespondRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		conn, apiErr := s.ConnectionService.RespondToConnection(userID, connectionID, request.Status)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "connection updated", http.StatusOK, conn, nil)
	}
}

func (s *Server) handleListConnections() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conns, apiErr := s.ConnectionService.ListConnections(userID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "connections retrieved successfully", http.StatusOK, conns, nil)
	}
}

func (s *Server) handleListPendingConnections() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conns, apiErr := s.ConnectionService.ListPendingIncoming(userID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "pending requests retrieved successfully", http.StatusOK, conns, nil)
	}
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
