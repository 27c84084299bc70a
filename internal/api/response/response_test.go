package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanroute/cleanroute/internal/api/middleware"
	"github.com/cleanroute/cleanroute/internal/api/models"
	"github.com/cleanroute/cleanroute/internal/api/response"
)

func TestJSON(t *testing.T) {
	var rec *httptest.ResponseRecorder
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"hello": "world"})
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("X-Request-Id", "req_resp_test")
	rec = httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_resp_test", rec.Header().Get("X-Request-Id"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "world", body["hello"])
}

func TestJSON_NilBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestBadRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/routes/optimal", http.NoBody)
	rec := httptest.NewRecorder()

	response.BadRequest(rec, req, "origin is required", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.Equal(t, "origin is required", problem.Detail)
	assert.Equal(t, "/v1/routes/optimal", problem.Instance)
}

func TestNoRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/routes/optimal", http.NoBody)
	rec := httptest.NewRecorder()

	response.NoRoute(rec, req, "no route between the given points")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeNoRoute, problem.Type)
}

func TestServiceUnavailable(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/air/current", http.NoBody)
	rec := httptest.NewRecorder()

	response.ServiceUnavailable(rec, req, "air quality provider unavailable")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeUnavailable, problem.Type)
}
