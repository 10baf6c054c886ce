package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type rosterServiceMock struct {
	faculty []models.Faculty
	rooms   []models.Room
	err     error
	kind    string
}

func (m *rosterServiceMock) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	return m.faculty, m.err
}

func (m *rosterServiceMock) ListRooms(ctx context.Context, kind string) ([]models.Room, error) {
	m.kind = kind
	return m.rooms, m.err
}

func TestRosterHandlerFaculty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &RosterHandler{service: &rosterServiceMock{faculty: []models.Faculty{{ID: "f1", Name: "Prof A"}}}}

	c, w := newGinContext(http.MethodGet, "/roster/faculty", nil)
	handler.Faculty(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Prof A")
}

func TestRosterHandlerRoomsPassesKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &rosterServiceMock{rooms: []models.Room{{Name: "L1", Kind: models.RoomKindLab}}}
	handler := &RosterHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/roster/rooms?kind=lab", nil)
	handler.Rooms(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lab", mockSvc.kind)
}

func TestRosterHandlerDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &RosterHandler{service: &rosterServiceMock{err: appErrors.Clone(appErrors.ErrNotConfigured, "roster database disabled")}}

	c, w := newGinContext(http.MethodGet, "/roster/faculty", nil)
	handler.Faculty(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}
