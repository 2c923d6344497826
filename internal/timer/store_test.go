package timer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/database/settings"
	"github.com/mrlokans/readlog/internal/entities"
)

func openStore(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "readlog.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore_MissingBlobIsNotAnError(t *testing.T) {
	store := NewStore(settings.NewRepository(openStore(t).DB))

	timer, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, timer)
}

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(settings.NewRepository(openStore(t).DB))

	tm := New(12)
	require.NoError(t, tm.Start(1000))
	tm.Pause(4000)
	require.NoError(t, tm.Start(9000))
	require.NoError(t, store.Save(tm))

	restored, found, err := store.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, State{AccumulatedMs: 3000, ActiveStartMs: 9000, ReadingID: 12}, restored.State())
	assert.True(t, restored.Running())
	assert.Equal(t, int64(4000), restored.TotalElapsed(10000))

	require.NoError(t, store.Clear())
	_, found, err = store.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_PartialBlobFallsBackToDefaults(t *testing.T) {
	prefs := settings.NewRepository(openStore(t).DB)
	require.NoError(t, prefs.SetSetting(entities.SettingKeyTimerAccumulatedMs, "2500"))

	tm, found, err := NewStore(prefs).Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2500), tm.State().AccumulatedMs)
	assert.Equal(t, int64(NoReading), tm.ReadingID())
	assert.False(t, tm.Running())
}

func TestStore_CorruptValue(t *testing.T) {
	prefs := settings.NewRepository(openStore(t).DB)
	require.NoError(t, prefs.SetSetting(entities.SettingKeyTimerActiveStartMs, "soon"))

	_, _, err := NewStore(prefs).Load()
	assert.Error(t, err)
}
