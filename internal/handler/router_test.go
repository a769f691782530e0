package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/models"
)

func newTestRouter(users *mockUserQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(log,
		NewUserHandler(&mockUserCommander{}, users),
		NewAccountHandler(&mockAccountCommander{}, &mockAccountQuerier{}),
	)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&mockUserQuerier{})

	w := doRequest(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, map[string]string{"status": "ok"}, body)
}

func TestRouterMountsResourceRoutes(t *testing.T) {
	router := newTestRouter(&mockUserQuerier{
		listFn: func(cqrs.ListUsersQuery) ([]models.User, error) { return []models.User{}, nil },
	})

	w := doRequest(router, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
