package db

import (
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ConnectionRepository interface {
	CreateConnection(conn *models.Connection) error
	FindConnectionByID(id uint) (*models.Connection, error)
	FindLiveConnectionBetween(a, b uint) (*models.Connection, error)
	UpdateConnectionStatus(id uint, status models.ConnectionStatus) error
	ListConnections(userID uint) ([]models.Connection, error)
	ListPendingIncoming(userID uint) ([]models.Connection, error)
}

type connectionRepo struct {
	DB *gorm.DB
}

func NewConnectionRepo(db *GormDB) ConnectionRepository {
	return &connectionRepo{db.DB}
}

func (r *connectionRepo) CreateConnection(conn *models.Connection) error {
	conn.PairKey = models.PairKeyFor(conn.RequesterID, conn.RecipientID)
	if err := r.DB.Create(conn).Error; err != nil {
		return errors.Wrap(err, "could not create connection")
	}
	return nil
}

func (r *connectionRepo) FindConnectionByID(id uint) (*models.Connection, error) {
	conn := &models.Connection{}
	err := r.DB.Preload("Requester").Preload("Recipient").First(conn, id).Error
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// FindLiveConnectionBetween returns the pending or accepted row for the pair,
// or gorm.ErrRecordNotFound.
func (r *connectionRepo) FindLiveConnectionBetween(a, b uint) (*models.Connection, error) {
	conn := &models.Connection{}
	err := r.DB.Where("pair_key = ? AND status IN ?",
		models.PairKeyFor(a, b),
		[]models.ConnectionStatus{models.ConnectionPending, models.ConnectionAccepted},
	).First(conn).Error
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepo) UpdateConnectionStatus(id uint, status models.ConnectionStatus) error {
	result := r.DB.Model(&models.Connection{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not update connection")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *connectionRepo) ListConnections(userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.DB.Preload("Requester").Preload("Recipient").
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?", userID, userID, models.ConnectionAccepted).
		Order("updated_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list connections")
	}
	return conns, nil
}

func (r *connectionRepo) ListPendingIncoming(userID uint) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.DB.Preload("Requester").
		Where("recipient_id = ? AND status = ?", userID, models.ConnectionPending).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list pending connections")
	}
	return conns, nil
}
