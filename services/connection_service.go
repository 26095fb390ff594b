package services

import (
	"net/http"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	apiError "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ConnectionService manages the crew connection graph.
type ConnectionService interface {
	RequestConnection(requesterID, recipientID uint) (*models.Connection, *apiError.Error)
	RespondToConnection(actorID, connectionID uint, status models.ConnectionStatus) (*models.Connection, *apiError.Error)
	ListConnections(userID uint) ([]models.Connection, *apiError.Error)
	ListPendingIncoming(userID uint) ([]models.Connection, *apiError.Error)
}

type connectionService struct {
	Config   *config.Config
	connRepo db.ConnectionRepository
	authRepo db.AuthRepository
}

func NewConnectionService(connRepo db.ConnectionRepository, authRepo db.AuthRepository, conf *config.Config) ConnectionService {
	return &connectionService{
		Config:   conf,
		connRepo: connRepo,
		authRepo: authRepo,
	}
}

// RequestConnection creates a pending request toward the recipient. A live
// (pending or accepted) connection between the pair blocks a second one;
// declined or withdrawn history does not.
func (s *connectionService) RequestConnection(requesterID, recipientID uint) (*models.Connection, *apiError.Error) {
	if recipientID == requesterID {
		return nil, apiError.New("cannot connect with yourself", http.StatusBadRequest)
	}
	if _, err := s.authRepo.FindUserByID(recipientID); err != nil {
		return nil, apiError.FromDB(err, "user not found")
	}

	existing, err := s.connRepo.FindLiveConnectionBetween(requesterID, recipientID)
	if err == nil && existing != nil {
		if existing.Status == models.ConnectionAccepted {
			return nil, apiError.New("already connected", http.StatusConflict)
		}
		return nil, apiError.New("connection request already pending", http.StatusConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apiError.ErrInternalServerError
	}

	conn := &models.Connection{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.ConnectionPending,
	}
	if err := s.connRepo.CreateConnection(conn); err != nil {
		return nil, apiError.FromDB(err, "user not found")
	}
	return conn, nil
}

// RespondToConnection applies an accept, decline or withdraw. The transition
// rules live on the model: only pending requests move, recipients answer,
// requesters withdraw.
func (s *connectionService) RespondToConnection(actorID, connectionID uint, status models.ConnectionStatus) (*models.Connection, *apiError.Error) {
	conn, err := s.connRepo.FindConnectionByID(connectionID)
	if err != nil {
		return nil, apiError.FromDB(err, "connection not found")
	}

	if actorID != conn.RequesterID && actorID != conn.RecipientID {
		return nil, apiError.ErrForbidden
	}
	if !conn.CanTransition(status, actorID) {
		return nil, apiError.New("illegal connection transition", http.StatusConflict)
	}

	if err := s.connRepo.UpdateConnectionStatus(conn.ID, status); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	conn.Status = status
	return conn, nil
}

func (s *connectionService) ListConnections(userID uint) ([]models.Connection, *apiError.Error) {
	conns, err := s.connRepo.ListConnections(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return conns, nil
}

func (s *connectionService) ListPendingIncoming(userID uint) ([]models.Connection, *apiError.Error) {
	conns, err := s.connRepo.ListPendingIncoming(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return conns, nil
}
