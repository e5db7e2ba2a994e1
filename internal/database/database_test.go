package database

import (
	"context"
	"testing"
	"time"

	"github.com/scythe504/guessword-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("guessword"),
		postgres.WithUsername("guessword"),
		postgres.WithPassword("guessword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestArchiveRound(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	srv, err := New(ctx, dsn)
	require.NoError(t, err)
	defer srv.Close()

	health := srv.Health(ctx)
	assert.Equal(t, "up", health["status"])

	yes := "Sì"
	bob := "bob"
	ended := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, srv.ArchiveRound(ctx, internal.RoundResult{
		Code:   "ABCD",
		Round:  1,
		Secret: "gatto",
		Questions: []internal.Question{
			{ID: 1, AskerID: bob, AskerName: "Bob", Text: "È un animale?", Answer: &yes},
		},
		Guesses:    []internal.Guess{{PlayerID: bob, Name: "Bob", Text: "gatto", Correct: true, Phase: internal.StatusPlaying}},
		WinnerID:   &bob,
		WinnerName: "Bob",
		Message:    "Bob guessed the word!",
		AskedCount: 1,
		EndedAt:    ended,
	}))
	require.NoError(t, srv.ArchiveRound(ctx, internal.RoundResult{
		Code:    "ABCD",
		Round:   2,
		Secret:  "cane",
		Message: "Nobody guessed the word.",
		EndedAt: ended.Add(time.Minute),
	}))

	rounds, err := srv.Recent(ctx, "ABCD", 10)
	require.NoError(t, err)
	require.Len(t, rounds, 2)

	assert.Equal(t, 2, rounds[0].Round)
	assert.Nil(t, rounds[0].WinnerID)

	first := rounds[1]
	assert.Equal(t, "gatto", first.Secret)
	require.NotNil(t, first.WinnerID)
	assert.Equal(t, "bob", *first.WinnerID)
	require.Len(t, first.Questions, 1)
	assert.Equal(t, "Sì", *first.Questions[0].Answer)
	assert.True(t, first.EndedAt.Equal(ended))

	none, err := srv.Recent(ctx, "ZZZZ", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
