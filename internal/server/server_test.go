package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-v2/gateway/config"
	"github.com/pageza/alchemorsel-v2/gateway/internal/service"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

type stubWorkflows struct{}

func (stubWorkflows) Handle(_ context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	return service.Clarify(types.IntentAmbiguous, "which one?"), nil
}

func (stubWorkflows) Suggest(context.Context, types.SuggestRequest) (*types.ChatResponse, error) {
	return &types.ChatResponse{Intent: types.IntentSuggestRecipe}, nil
}

func (stubWorkflows) Modify(context.Context, types.ModifyRequest) (*types.ChatResponse, error) {
	return &types.ChatResponse{Intent: types.IntentModifyRecipe}, nil
}

func (stubWorkflows) GroceryList(context.Context, types.GroceryListRequest) (*types.ChatResponse, error) {
	return &types.ChatResponse{Intent: types.IntentGroceryList}, nil
}

func (stubWorkflows) General(context.Context, types.GeneralRequest) (*types.ChatResponse, error) {
	return &types.ChatResponse{Intent: types.IntentGeneralQuestion}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:        config.Test,
		ServerHost:         "localhost",
		ServerPort:         "8080",
		CORSAllowedOrigins: []string{"*"},
	}
}

func TestNew(t *testing.T) {
	srv := New(testConfig(), Dependencies{Workflows: stubWorkflows{}}, nil)
	require.NotNil(t, srv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"needs_clarification":true`)
}

func TestNew_WithAuth(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	srv := New(testConfig(), Dependencies{Workflows: stubWorkflows{}, Tokens: tokens}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := tokens.GenerateToken("web", []string{ChatScope}, time.Hour)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = "0"
	srv := New(cfg, Dependencies{Workflows: stubWorkflows{}}, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
