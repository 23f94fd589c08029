package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"waitline/internal/config"
)

// Runs against a replica-set mongo when MONGO_TEST_URI is set.
func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := ConnectMongo(ctx, config.MongoConfig{URI: uri})
	require.NoError(t, err)

	dbName := "waitline_test_" + uuid.NewString()[:8]
	s := NewMongoStore(client, dbName)
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(ctx)
		_ = s.Close()
	})
	require.NoError(t, s.Migrate(ctx))

	runStoreContract(t, s)
}
