package marketplace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/internal/modules/marketplace"
	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

func TestNewModule_ForceLocal(t *testing.T) {
	m := marketplace.NewModule(kv.NewMemoryStorage(), config.RemoteConfig{ForceLocal: true}, nil)
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPHandler())
	assert.NotNil(t, m.LocalStore())

	require.NoError(t, m.Coordinator().Initialize(context.Background()))
	assert.Equal(t, "Local Storage", m.Coordinator().DatabaseStatus())
}

func TestNewModule_UnreachableBackend(t *testing.T) {
	m := marketplace.NewModule(kv.NewMemoryStorage(), config.RemoteConfig{BaseURL: "http://127.0.0.1:1/api"}, nil)

	require.NoError(t, m.Coordinator().Initialize(context.Background()))
	assert.False(t, m.Coordinator().UsingRemote())

	users, err := m.Coordinator().Users(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 3)
}
