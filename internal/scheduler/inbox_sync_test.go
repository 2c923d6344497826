package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readlog/internal/config"
	"github.com/mrlokans/readlog/internal/entities"
	"github.com/mrlokans/readlog/internal/reconcile"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	sources []string
	batches []*reconcile.Batch
	err     error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, source string, batch *reconcile.Batch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sources = append(d.sources, source)
	d.batches = append(d.batches, batch)
	return d.err
}

type memoryStatus struct {
	values map[string]string
}

func (m *memoryStatus) SetValues(values map[string]string) error {
	m.values = values
	return nil
}

type memoryArchive struct {
	payloads [][]byte
}

func (m *memoryArchive) SavePayload(payload []byte) (string, error) {
	m.payloads = append(m.payloads, payload)
	return "archived.json", nil
}

func writeInbox(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.Error(t, ValidateSchedule("every five minutes"))
	assert.Error(t, ValidateSchedule("* * * * * *"))
}

func TestInboxSyncScheduler_RunOnce(t *testing.T) {
	dir := t.TempDir()
	writeInbox(t, dir, map[string]string{
		"001.json":   `{"run_id": "a", "books": [{"remote_id": 1, "title": "Beloved"}]}`,
		"002.json":   `{"books": [`,
		"readme.txt": "not a payload",
	})

	dispatcher := &recordingDispatcher{}
	status := &memoryStatus{}
	archive := &memoryArchive{}
	s := NewInboxSyncScheduler(config.Inbox{Dir: dir}, dispatcher, status, archive)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"001.json"}, result.Dispatched)
	assert.Equal(t, []string{"002.json"}, result.Failed)

	require.Len(t, dispatcher.batches, 1)
	assert.Equal(t, "a", dispatcher.batches[0].RunID)
	assert.Equal(t, "Beloved", *dispatcher.batches[0].Books[0].Title)
	assert.Len(t, archive.payloads, 2)

	_, err = os.Stat(filepath.Join(dir, processedDir, "001.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, failedDir, "002.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "readme.txt"))
	assert.NoError(t, err)

	assert.Equal(t, "failed", status.values[entities.SettingKeyInboxSyncLastStatus])
	assert.NotEmpty(t, status.values[entities.SettingKeyInboxSyncLastAt])

	// The inbox is empty now.
	result, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Dispatched)
	assert.Equal(t, "success", status.values[entities.SettingKeyInboxSyncLastStatus])
}

func TestInboxSyncScheduler_DispatchError(t *testing.T) {
	dir := t.TempDir()
	writeInbox(t, dir, map[string]string{"batch.json": `{"deleted": [4]}`})

	dispatcher := &recordingDispatcher{err: errors.New("queue closed")}
	s := NewInboxSyncScheduler(config.Inbox{Dir: dir}, dispatcher, nil, nil)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"batch.json"}, result.Failed)
}

func TestInboxSyncScheduler_MissingInbox(t *testing.T) {
	s := NewInboxSyncScheduler(config.Inbox{Dir: filepath.Join(t.TempDir(), "absent")}, &recordingDispatcher{}, nil, nil)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Dispatched)
}

func TestInboxSyncScheduler_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeInbox(t, dir, map[string]string{"batch.json": `{}`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dispatcher := &recordingDispatcher{}
	s := NewInboxSyncScheduler(config.Inbox{Dir: dir}, dispatcher, nil, nil)
	_, err := s.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dispatcher.sources)
}

func TestInboxSyncScheduler_StartStop(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := NewInboxSyncScheduler(config.Inbox{Enabled: false, Schedule: "* * * * *"}, &recordingDispatcher{}, nil, nil)
		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
		assert.Nil(t, s.GetNextRunTime())
	})

	t.Run("invalid schedule", func(t *testing.T) {
		s := NewInboxSyncScheduler(config.Inbox{Enabled: true, Schedule: "never"}, &recordingDispatcher{}, nil, nil)
		assert.Error(t, s.Start(context.Background()))
	})

	t.Run("enabled", func(t *testing.T) {
		s := NewInboxSyncScheduler(config.Inbox{Enabled: true, Dir: t.TempDir(), Schedule: "*/5 * * * *"}, &recordingDispatcher{}, nil, nil)
		require.NoError(t, s.Start(context.Background()))
		assert.True(t, s.IsRunning())
		assert.NotNil(t, s.GetNextRunTime())
		assert.False(t, s.IsSyncing())

		s.Stop()
		assert.False(t, s.IsRunning())
		s.Stop()
	})
}
