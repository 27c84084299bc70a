package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanroute/cleanroute/internal/api/models"
)

func TestNewProblem(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_123")

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_123", p.TraceID)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_123", "origin is required", []models.FieldError{
		{Field: "origin", Message: "must be lat,lon", Code: "invalid_format"},
	})
	p.Instance = "/v1/routes/optimal"

	rec := httptest.NewRecorder()
	p.Write(rec)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var decoded models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))

	assert.Equal(t, models.ProblemTypeValidation, decoded.Type)
	assert.Equal(t, "origin is required", decoded.Detail)
	assert.Equal(t, "/v1/routes/optimal", decoded.Instance)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "origin", decoded.Errors[0].Field)
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name       string
		problem    *models.Problem
		wantType   string
		wantStatus int
	}{
		{"not found", models.NewNotFound("req_1", "no such thing"), models.ProblemTypeNotFound, http.StatusNotFound},
		{"no route", models.NewNoRoute("req_2", "no route between points"), models.ProblemTypeNoRoute, http.StatusNotFound},
		{"too many requests", models.NewTooManyRequests("req_3", "slow down"), models.ProblemTypeTooManyRequests, http.StatusTooManyRequests},
		{"internal", models.NewInternalError("req_4", "oops"), models.ProblemTypeInternal, http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("req_5", "provider down"), models.ProblemTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.problem.Type)
			assert.Equal(t, tt.wantStatus, tt.problem.Status)
			assert.NotEmpty(t, tt.problem.TraceID)
		})
	}
}
