package dbtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestStartRecoversFromMissingDocker(t *testing.T) {
	ctr, err := start(context.Background(), func(context.Context) (*tcpostgres.PostgresContainer, error) {
		panic("rootless Docker not found")
	})
	require.Error(t, err)
	assert.Nil(t, ctr)
	assert.Contains(t, err.Error(), "rootless Docker not found")
}

func TestStartReturnsLaunchError(t *testing.T) {
	boom := errors.New("pull failed")
	_, err := start(context.Background(), func(context.Context) (*tcpostgres.PostgresContainer, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestOpenSkipsWithoutContainer(t *testing.T) {
	if dsn != "" {
		t.Skip("container is running")
	}

	skipped := true
	t.Run("open", func(t *testing.T) {
		Open(t)
		skipped = false
	})
	assert.True(t, skipped)
}
