package services

import (
	"testing"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeConnectionRepo keeps connections in memory; unimplemented AuthRepository
// methods on fakeAuthRepo panic, which is fine for these paths.
type fakeConnectionRepo struct {
	db.ConnectionRepository
	connections map[uint]*models.Connection
	nextID      uint
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{connections: make(map[uint]*models.Connection), nextID: 1}
}

func (f *fakeConnectionRepo) CreateConnection(conn *models.Connection) error {
	conn.ID = f.nextID
	f.nextID++
	conn.PairKey = models.PairKeyFor(conn.RequesterID, conn.RecipientID)
	f.connections[conn.ID] = conn
	return nil
}

func (f *fakeConnectionRepo) FindConnectionByID(id uint) (*models.Connection, error) {
	conn, ok := f.connections[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conn, nil
}

func (f *fakeConnectionRepo) FindLiveConnectionBetween(a, b uint) (*models.Connection, error) {
	pairKey := models.PairKeyFor(a, b)
	for _, conn := range f.connections {
		if conn.PairKey == pairKey && (conn.Status == models.ConnectionPending || conn.Status == models.ConnectionAccepted) {
			return conn, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConnectionRepo) UpdateConnectionStatus(id uint, status models.ConnectionStatus) error {
	conn, ok := f.connections[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conn.Status = status
	return nil
}

type fakeAuthRepo struct {
	db.AuthRepository
	users map[uint]*models.User
}

func (f *fakeAuthRepo) FindUserByID(id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func newConnectionServiceForTest() (ConnectionService, *fakeConnectionRepo) {
	connRepo := newFakeConnectionRepo()
	authRepo := &fakeAuthRepo{users: map[uint]*models.User{
		1: {Model: models.Model{ID: 1}},
		2: {Model: models.Model{ID: 2}},
	}}
	return NewConnectionService(connRepo, authRepo, &config.Config{}), connRepo
}

func TestRequestConnection(t *testing.T) {
	svc, _ := newConnectionServiceForTest()

	conn, apiErr := svc.RequestConnection(1, 2)
	require.Nil(t, apiErr)
	assert.Equal(t, models.ConnectionPending, conn.Status)
	assert.Equal(t, uint(1), conn.RequesterID)
	assert.Equal(t, uint(2), conn.RecipientID)
}

func TestRequestConnectionRejectsSelfAndUnknown(t *testing.T) {
	svc, _ := newConnectionServiceForTest()

	_, apiErr := svc.RequestConnection(1, 1)
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)

	_, apiErr = svc.RequestConnection(1, 99)
	require.NotNil(t, apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestRequestConnectionBlocksLivePair(t *testing.T) {
	svc, repo := newConnectionServiceForTest()

	conn, apiErr := svc.RequestConnection(1, 2)
	require.Nil(t, apiErr)

	// Pending duplicate, in either direction.
	_, apiErr = svc.RequestConnection(2, 1)
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)

	// Accepted pair stays blocked too.
	repo.connections[conn.ID].Status = models.ConnectionAccepted
	_, apiErr = svc.RequestConnection(1, 2)
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)

	// Declined history frees the pair.
	repo.connections[conn.ID].Status = models.ConnectionDeclined
	_, apiErr = svc.RequestConnection(1, 2)
	assert.Nil(t, apiErr)
}

func TestRespondToConnection(t *testing.T) {
	svc, _ := newConnectionServiceForTest()
	conn, apiErr := svc.RequestConnection(1, 2)
	require.Nil(t, apiErr)

	// Requester cannot accept their own request.
	_, apiErr = svc.RespondToConnection(1, conn.ID, models.ConnectionAccepted)
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)

	// Strangers get a 403 before transition rules apply.
	_, apiErr = svc.RespondToConnection(9, conn.ID, models.ConnectionAccepted)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	updated, apiErr := svc.RespondToConnection(2, conn.ID, models.ConnectionAccepted)
	require.Nil(t, apiErr)
	assert.Equal(t, models.ConnectionAccepted, updated.Status)

	// Already answered: nothing moves.
	_, apiErr = svc.RespondToConnection(2, conn.ID, models.ConnectionDeclined)
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)
}

func TestWithdrawConnection(t *testing.T) {
	svc, _ := newConnectionServiceForTest()
	conn, apiErr := svc.RequestConnection(1, 2)
	require.Nil(t, apiErr)

	updated, apiErr := svc.RespondToConnection(1, conn.ID, models.ConnectionWithdrawn)
	require.Nil(t, apiErr)
	assert.Equal(t, models.ConnectionWithdrawn, updated.Status)
}
