package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-v2/gateway/internal/database"
	"github.com/pageza/alchemorsel-v2/gateway/internal/models"
	"github.com/pageza/alchemorsel-v2/gateway/internal/service"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := runCLI(t, "token", "--secret", "s3cret", "--client", "web", "--scope", "chat,usage:read")
	require.NoError(t, err)

	claims, err := service.NewTokenService("s3cret").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "web", claims.ClientID)
	assert.Equal(t, []string{"chat", "usage:read"}, claims.Scopes)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := runCLI(t, "token", "--client", "web")
	assert.Error(t, err)
}

func TestUsageCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := database.Open("", path, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	usage := service.NewUsageService(db)
	ctx := context.Background()
	require.NoError(t, usage.Record(ctx, &models.GenerationRecord{Endpoint: "chat", Intent: "suggest_recipe", Calls: 2, Repairs: 1, Outcome: models.OutcomeOK, StatusCode: 200}))
	require.NoError(t, usage.Record(ctx, &models.GenerationRecord{Endpoint: "chat", Intent: "suggest_recipe", Calls: 4, Outcome: models.OutcomeBackendError, StatusCode: 503}))
	require.NoError(t, database.Close(db))

	out, err := runCLI(t, "usage", "summary", "--db-path", path, "--database-url", "")
	require.NoError(t, err)
	assert.Contains(t, out, "suggest_recipe")
	assert.Contains(t, out, "Failures")

	out, err = runCLI(t, "--json", "usage", "summary", "--db-path", path, "--database-url", "")
	require.NoError(t, err)
	var summaries []models.IntentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].Turns)
	assert.Equal(t, int64(6), summaries[0].Calls)
	assert.Equal(t, int64(1), summaries[0].Failures)

	out, err = runCLI(t, "usage", "recent", "--db-path", path, "--database-url", "", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "chat")
}

func TestChatCommand(t *testing.T) {
	var got types.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.ChatResponse{
			Intent:       types.IntentGroceryList,
			ResponseText: "Here is your list.",
			GroceryList: []types.GroceryItem{
				{Name: "garlic", Quantity: 2, Unit: "clove", UnitConflict: true},
				{Name: "garlic", Quantity: 1, Unit: "bulb", UnitConflict: true},
			},
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, "chat", "--server", srv.URL, "--token", "tok", "--allergy", "peanut", "what", "do", "I", "buy?")
	require.NoError(t, err)
	assert.Equal(t, "what do I buy?", got.Message)
	assert.Equal(t, []string{"peanut"}, got.Profile.Allergies)
	assert.Contains(t, out, "[grocery_list] Here is your list.")
	assert.Contains(t, out, "unit conflict")
}

func TestChatCommand_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write([]byte(`{"intent":"suggest_recipe","error":"llm backend: server_unavailable"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "chat", "--server", srv.URL, "ideas please")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "504")
	assert.Contains(t, err.Error(), "suggest_recipe")
}
