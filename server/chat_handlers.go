package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/server/response"
)

func (s *Server) handleListConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		previews, apiErr := s.ChatService.ListConversationPreviews(userID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "conversations retrieved successfully", http.StatusOK, previews, nil)
	}
}

// handleStartConversation finds or creates the single conversation with the
// peer. 201 signals a new thread, 200 an existing one.
func (s *Server) handleStartConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		var request models.StartConversationRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		conv, created, apiErr := s.ChatService.StartConversation(userID, request.PeerID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		response.JSON(c, "conversation ready", status, conv, nil)
	}
}

func (s *Server) handleListMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid conversation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		msgs, apiErr := s.ChatService.GetMessages(userID, conversationID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "messages retrieved successfully", http.StatusOK, msgs, nil)
	}
}

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid conversation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		var request models.SendMessageRequest
		if err := decode(c, &request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		msg, apiErr := s.ChatService.SendMessage(userID, conversationID, request.Body)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "message sent", http.StatusCreated, msg, nil)
	}
}

func (s *Server) handleMarkConversationRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "invalid conversation id", http.StatusBadRequest, nil, errs.ErrBadRequest)
			return
		}

		readIDs, apiErr := s.ChatService.MarkConversationRead(userID, conversationID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "conversation marked read", http.StatusOK, gin.H{"read_message_ids": readIDs}, nil)
	}
}

func (s *Server) handleUnreadCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}

		total, apiErr := s.ChatService.UnreadTotal(userID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "unread count retrieved successfully", http.StatusOK, models.UnreadCountResponse{Total: total}, nil)
	}
}
