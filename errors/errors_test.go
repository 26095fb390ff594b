package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestGetUniqueContraintError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{errors.New(`duplicate key value violates unique constraint "idx_production_companies_slug"`), http.StatusConflict, "slug already taken"},
		{errors.New(`duplicate key value violates unique constraint "idx_company_invitations_pending"`), http.StatusConflict, "invitation already pending"},
		{errors.New(`duplicate key value violates unique constraint "idx_job_applications_applicant"`), http.StatusConflict, "application already submitted"},
		{errors.New("duplicate key value violates unique constraint"), http.StatusConflict, "record already exists"},
		{errors.New("connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		got := GetUniqueContraintError(tc.err)
		assert.Equal(t, tc.status, got.Status, "for %v", tc.err)
		assert.Equal(t, tc.msg, got.Message, "for %v", tc.err)
	}
}

func TestFromDB(t *testing.T) {
	notFound := FromDB(gorm.ErrRecordNotFound, "thing not found")
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.Equal(t, "thing not found", notFound.Message)

	assert.Equal(t, ErrNotFound, FromDB(gorm.ErrRecordNotFound, ""))

	dup := FromDB(errors.New("ERROR: duplicate key value (SQLSTATE 23505)"), "thing not found")
	assert.Equal(t, http.StatusConflict, dup.Status)

	other := FromDB(errors.New("broken pipe"), "thing not found")
	assert.Equal(t, http.StatusInternalServerError, other.Status)

	assert.Nil(t, FromDB(nil, "unused"))
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(errors.New("ERROR: duplicate key value (SQLSTATE 23505)")))
	assert.False(t, IsDuplicate(errors.New("record not found")))
	assert.False(t, IsDuplicate(nil))
}

func TestErrorFormatting(t *testing.T) {
	e := New("nope", http.StatusBadRequest)
	assert.Equal(t, "400: nope", e.Error())
}
