package shared

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disiplinku/backend/core"
	"github.com/disiplinku/backend/core/notification"
	logsvc "github.com/disiplinku/backend/services/logger"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := logsvc.NewNopLogger()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fixture.json",
		[]byte(`{"notifications":{"-P1":{"name":"OSIS","content":"hi"}}}`), 0644))

	t.Run("memory fixture", func(t *testing.T) {
		conf := &core.Config{Store: core.StoreConfig{Engine: core.StoreMemory, Fixture: "/fixture.json"}}
		store, cred, err := OpenStore(ctx, conf, fs, logger)
		require.NoError(t, err)
		assert.Equal(t, core.StoreMemory, cred)
		doc, err := store.ReadOne(ctx, "notifications/-P1")
		require.NoError(t, err)
		assert.Equal(t, "OSIS", doc["name"])
	})

	t.Run("missing fixture", func(t *testing.T) {
		conf := &core.Config{Store: core.StoreConfig{Engine: core.StoreMemory, Fixture: "/nope.json"}}
		_, _, err := OpenStore(ctx, conf, fs, logger)
		assert.Error(t, err)
	})

	t.Run("firebase without credential", func(t *testing.T) {
		conf := &core.Config{Store: core.StoreConfig{Engine: core.StoreFirebase}}
		store, cred, err := OpenStore(ctx, conf, fs, logger)
		require.NoError(t, err)
		assert.Empty(t, cred)

		disp := NewDispatcher(conf, DispatcherDeps{Store: store, Credential: cred, Logger: logger})
		_, err = disp.Dispatch(ctx, notification.SelectAll)
		assert.Equal(t, core.ErrConfigMissing, err)
	})

	t.Run("unknown engine", func(t *testing.T) {
		conf := &core.Config{Store: core.StoreConfig{Engine: "mongo"}}
		_, _, err := OpenStore(ctx, conf, fs, logger)
		assert.EqualError(t, err, `unknown store engine "mongo"`)
	})
}

func TestOpenAuditLog_disabled(t *testing.T) {
	db, err := OpenAuditLog(context.Background(), &core.Config{})
	assert.NoError(t, err)
	assert.Nil(t, db)
}
