package dataaccess

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testMapping(channelID string, pairs ...entities.RolePair) *entities.RoleMapping {
	return &entities.RoleMapping{
		ChannelID:   channelID,
		ChannelName: "roles",
		Pairs:       pairs,
		Embed: entities.Embed{
			Title:       "Reaction Roles",
			Description: "React below to get roles!",
			Color:       "#FFD700",
			Footer:      "V0 | Reaction Roles",
		},
	}
}

// dalContract runs the behaviour every backend shares. open must return a fresh dal over the same storage each call.
func dalContract(t *testing.T, open func(t *testing.T) RoleMappingDal) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		d := open(t)
		records, err := d.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, records)
		require.NoError(t, d.Ping(ctx))
	})

	t.Run("round trip across reload", func(t *testing.T) {
		d := open(t)
		_, err := d.Load(ctx)
		require.NoError(t, err)

		first := testMapping("123", entities.RolePair{Emoji: "✅", RoleID: "999"}, entities.RolePair{Emoji: "<:pepe:42>", RoleID: "7"})
		second := testMapping("456", entities.RolePair{Emoji: "🔥", RoleID: "8"})
		require.NoError(t, d.Save(ctx, "1", first))
		require.NoError(t, d.Save(ctx, "2", second))

		// Replace wholesale.
		replaced := testMapping("123", entities.RolePair{Emoji: "❌", RoleID: "1000"})
		replaced.Embed.Title = "Edited"
		require.NoError(t, d.Save(ctx, "1", replaced))

		require.NoError(t, d.Delete(ctx, "2"))
		require.NoError(t, d.Delete(ctx, "unknown"))
		require.NoError(t, d.Close(ctx))

		reopened := open(t)
		records, err := reopened.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, map[string]*entities.RoleMapping{"1": replaced}, records)
	})
}

func TestFileDal(t *testing.T) {
	dir := t.TempDir()
	dalContract(t, func(t *testing.T) RoleMappingDal {
		// Each subtest gets its own file; reopening within a subtest reuses it.
		sub := filepath.Join(dir, filepath.Base(t.Name()))
		require.NoError(t, os.MkdirAll(sub, 0o755))
		return NewFileDal(testLogger(), filepath.Join(sub, "reactionroles.json"))
	})
}

func TestFileDal_Format(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reactionroles.json")
	d := NewFileDal(testLogger(), path)

	_, err := d.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Save(ctx, "42", testMapping("123", entities.RolePair{Emoji: "✅", RoleID: "999"})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"42": {
			"channelId": "123",
			"channelName": "roles",
			"pairs": [{"emoji": "✅", "roleId": "999"}],
			"embed": {
				"title": "Reaction Roles",
				"description": "React below to get roles!",
				"color": "#FFD700",
				"footer": "V0 | Reaction Roles"
			}
		}
	}`, string(data))

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileDal_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactionroles.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, err := NewFileDal(testLogger(), path).Load(context.Background())
	require.Error(t, err)
}

func TestFileDal_SaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "reactionroles.json")
	d := NewFileDal(testLogger(), path)

	_, err := d.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Save(ctx, "1", testMapping("123", entities.RolePair{Emoji: "✅", RoleID: "999"})))

	// A directory where the file should be makes the rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	require.Error(t, d.Save(ctx, "2", testMapping("456", entities.RolePair{Emoji: "🔥", RoleID: "8"})))
	require.Len(t, d.records, 1)
}

func TestSQLiteDal(t *testing.T) {
	dir := t.TempDir()
	dalContract(t, func(t *testing.T) RoleMappingDal {
		path := filepath.Join(dir, filepath.Base(t.Name())+".db")
		d, err := NewRoleMappingDal(context.Background(), testLogger(), &Config{Backend: BackendSQLite, Path: path})
		require.NoError(t, err)
		return d
	})
}

func TestSQLiteDal_UpdatedAt(t *testing.T) {
	ctx := context.Background()
	d, err := NewRoleMappingDal(ctx, testLogger(), &Config{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "v0bot.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(ctx) })

	before := time.Now().Add(-time.Minute)
	require.NoError(t, d.Save(ctx, "1", testMapping("123", entities.RolePair{Emoji: "✅", RoleID: "999"})))

	at, err := d.(*SQLiteDal).UpdatedAt(ctx, "1")
	require.NoError(t, err)
	require.True(t, time.Time(at).After(before))
}

func TestNewRoleMappingDal_Unsupported(t *testing.T) {
	_, err := NewRoleMappingDal(context.Background(), testLogger(), &Config{Backend: "postgres"})
	require.Error(t, err)
}
