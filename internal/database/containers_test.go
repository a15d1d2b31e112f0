package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-v2/gateway/config"
	"github.com/pageza/alchemorsel-v2/gateway/internal/models"
	"github.com/pageza/alchemorsel-v2/gateway/internal/testutil"
)

func TestOpenPostgresAndMigrate(t *testing.T) {
	dsn := testutil.StartPostgres(t)

	db, err := Open(dsn, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migration must be repeatable")

	record := models.GenerationRecord{Endpoint: "chat", Intent: "grocery_list", Outcome: models.OutcomeOK, StatusCode: 200}
	require.NoError(t, db.Create(&record).Error)

	var stored models.GenerationRecord
	require.NoError(t, db.First(&stored, "id = ?", record.ID).Error)
	assert.Equal(t, "grocery_list", stored.Intent)
}

func TestNewRedisClient(t *testing.T) {
	url := testutil.StartRedis(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, config.RedisConfig{URL: url}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute).Err())
	assert.Equal(t, "v", client.Get(ctx, "k").Val())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: "1"}, nil)
	assert.Error(t, err)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{URL: "://nope"}, nil)
	assert.Error(t, err)
}
