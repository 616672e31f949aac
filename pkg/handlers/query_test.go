package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/idss-ai/text2sql-engine/pkg/apperrors"
	"github.com/idss-ai/text2sql-engine/pkg/services"
	enginesql "github.com/idss-ai/text2sql-engine/pkg/sql"
)

// mockQueryService is a function-field mock for the query service.
type mockQueryService struct {
	GenerateSQLFunc       func(ctx context.Context, question string) (*services.GenerateResult, error)
	ValidateSQLFieldsFunc func(sqlText string) (enginesql.ValidationResult, error)
}

func (m *mockQueryService) GenerateSQL(ctx context.Context, question string) (*services.GenerateResult, error) {
	if m.GenerateSQLFunc != nil {
		return m.GenerateSQLFunc(ctx, question)
	}
	return &services.GenerateResult{}, nil
}

func (m *mockQueryService) ValidateSQLFields(sqlText string) (enginesql.ValidationResult, error) {
	if m.ValidateSQLFieldsFunc != nil {
		return m.ValidateSQLFieldsFunc(sqlText)
	}
	return enginesql.ValidationResult{AllValid: true}, nil
}

func newTestMux(svc services.QueryService) *http.ServeMux {
	mux := http.NewServeMux()
	NewQueryHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestGenerateEndpoint(t *testing.T) {
	svc := &mockQueryService{
		GenerateSQLFunc: func(ctx context.Context, question string) (*services.GenerateResult, error) {
			assert.Equal(t, "geek 25年7月全链库存", question)
			return &services.GenerateResult{
				SQL:        "SELECT 1",
				Validation: enginesql.ValidationResult{AllValid: true},
			}, nil
		},
	}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/query/generate",
		strings.NewReader(`{"question": "geek 25年7月全链库存"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body services.GenerateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SELECT 1", body.SQL)
	assert.True(t, body.Validation.AllValid)
}

func TestGenerateEndpointBadBody(t *testing.T) {
	mux := newTestMux(&mockQueryService{})

	req := httptest.NewRequest(http.MethodPost, "/api/query/generate", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateEndpointEmptyQuestion(t *testing.T) {
	svc := &mockQueryService{
		GenerateSQLFunc: func(ctx context.Context, question string) (*services.GenerateResult, error) {
			return nil, apperrors.ErrEmptyQuestion
		},
	}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/query/generate", strings.NewReader(`{"question": ""}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body["error"])
}

func TestGenerateEndpointSynthesisFailure(t *testing.T) {
	svc := &mockQueryService{
		GenerateSQLFunc: func(ctx context.Context, question string) (*services.GenerateResult, error) {
			return nil, assert.AnError
		},
	}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/query/generate", strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "generation_failed", body["error"])
}

func TestGenerateEndpointRejectsGet(t *testing.T) {
	mux := newTestMux(&mockQueryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/query/generate", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestValidateFieldsEndpoint(t *testing.T) {
	svc := &mockQueryService{
		ValidateSQLFieldsFunc: func(sqlText string) (enginesql.ValidationResult, error) {
			return enginesql.ValidationResult{
				ValidFields:   []string{"[全链库存]"},
				MissingFields: []string{"[幻觉字段]"},
				AllValid:      false,
			}, nil
		},
	}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/query/validate-fields",
		strings.NewReader(`{"sql": "SELECT [全链库存], [幻觉字段] FROM dtsupply_summary"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body enginesql.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.AllValid)
	assert.Equal(t, []string{"[幻觉字段]"}, body.MissingFields)
}

func TestValidateFieldsEndpointEmptySQL(t *testing.T) {
	svc := &mockQueryService{
		ValidateSQLFieldsFunc: func(sqlText string) (enginesql.ValidationResult, error) {
			return enginesql.ValidationResult{}, apperrors.ErrEmptySQL
		},
	}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/query/validate-fields", strings.NewReader(`{"sql": ""}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
