//go:build integration

package corpus_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/corpus/corpustest"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("postcodes"),
		tcpostgres.WithUsername("postcodes"),
		tcpostgres.WithPassword("postcodes"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.PingContext(ctx))

	store := corpus.NewSQLStore(db, corpus.Postgres)
	require.NoError(t, store.CreateSchema(ctx))
	require.NoError(t, store.Insert(ctx, corpustest.Records()))

	browseContract(t, store)

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "postgres", st.Backend)
	assert.Empty(t, st.SourceFingerprint)
}
