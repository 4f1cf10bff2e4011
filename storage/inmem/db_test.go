package inmemdb

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disiplinku/backend/core"
)

const fixture = `{
	"notifications": {
		"-Nx1": {"name": "OSIS", "content": "Rapat jam 3", "sent": false}
	},
	"user-name-admin": {
		"u1": {"name": "Budi", "oneSignalPlayerId": "player-1"}
	}
}`

func loadFixture(t *testing.T) *DB {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fixtures/rtdb.json", []byte(fixture), 0o644))
	db, err := Load(fs, "/fixtures/rtdb.json")
	require.NoError(t, err)
	return db
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(afero.NewMemMapFs(), "/nope.json")
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/bad.json", []byte("{"), 0o644))
		_, err := Load(fs, "/bad.json")
		assert.Error(t, err)
	})

	t.Run("ok", func(t *testing.T) {
		db := loadFixture(t)
		doc, err := db.ReadOne(context.Background(), "user-name-admin/u1")
		require.NoError(t, err)
		assert.Equal(t, "player-1", doc["oneSignalPlayerId"])
	})
}

func TestDB_ReadTree(t *testing.T) {
	ctx := context.Background()
	db := loadFixture(t)

	tree, err := db.ReadTree(ctx, "notifications")
	require.NoError(t, err)
	assert.Len(t, tree, 1)

	// copies are returned
	tree["-Nx1"].(core.Document)["sent"] = true
	again, err := db.ReadTree(ctx, "/notifications/")
	require.NoError(t, err)
	assert.Equal(t, false, again["-Nx1"].(core.Document)["sent"])

	missing, err := db.ReadTree(ctx, "incomingCalls")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDB_ReadOne(t *testing.T) {
	ctx := context.Background()
	db := loadFixture(t)

	_, err := db.ReadOne(ctx, "user-name-admin/u2")
	assert.Equal(t, core.ErrNotFound, err)

	_, err = db.ReadOne(ctx, "user-name-admin/u1/name") // scalar
	assert.Equal(t, core.ErrNotFound, err)
}

func TestDB_UpdateField(t *testing.T) {
	ctx := context.Background()
	db := loadFixture(t)

	require.NoError(t, db.UpdateField(ctx, "notifications/-Nx1", "sent", true))
	doc, err := db.ReadOne(ctx, "notifications/-Nx1")
	require.NoError(t, err)
	assert.Equal(t, true, doc["sent"])
	assert.Equal(t, "OSIS", doc["name"])

	// creates missing nodes
	require.NoError(t, db.UpdateField(ctx, "incomingCalls/u1/c1", "processed", true))
	doc, err = db.ReadOne(ctx, "incomingCalls/u1/c1")
	require.NoError(t, err)
	assert.Equal(t, core.Document{"processed": true}, doc)
}

func TestDB_Set(t *testing.T) {
	ctx := context.Background()
	db := Open()

	type record struct {
		UserID    string `json:"userId"`
		CreatedAt int64  `json:"createdAt"`
	}
	require.NoError(t, db.Set(ctx, "api-keys/abcd_01", record{UserID: "u1", CreatedAt: 42}))
	doc, err := db.ReadOne(ctx, "api-keys/abcd_01")
	require.NoError(t, err)
	assert.Equal(t, core.Document{"userId": "u1", "createdAt": float64(42)}, doc)

	require.NoError(t, db.Set(ctx, "api-keys/abcd_01", nil))
	_, err = db.ReadOne(ctx, "api-keys/abcd_01")
	assert.Equal(t, core.ErrNotFound, err)

	assert.Error(t, db.Set(ctx, "", "scalar"))
}
