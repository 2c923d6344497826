package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchive struct {
	retention time.Duration
	removed   int
	err       error
}

func (f *fakeArchive) DeleteOlderThan(retention time.Duration) (int, error) {
	f.retention = retention
	return f.removed, f.err
}

func TestPruneArchivesProcessor(t *testing.T) {
	audit := &fakeArchive{removed: 3}
	inbox := &fakeArchive{}
	process := PruneArchivesProcessor(map[string]Archive{"payload archive": audit, "inbox": inbox})

	require.NoError(t, process(context.Background(), PruneArchivesTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, audit.retention)
	assert.Equal(t, 7*24*time.Hour, inbox.retention)

	require.NoError(t, process(context.Background(), PruneArchivesTask{}))
	assert.Equal(t, 30*24*time.Hour, audit.retention)
}

func TestPruneArchivesProcessor_FailureDoesNotStopOtherArchives(t *testing.T) {
	audit := &fakeArchive{err: errors.New("disk gone")}
	inbox := &fakeArchive{removed: 2}
	process := PruneArchivesProcessor(map[string]Archive{"payload archive": audit, "inbox": inbox})

	err := process(context.Background(), PruneArchivesTask{RetentionDays: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prune payload archive: disk gone")
	assert.Equal(t, 24*time.Hour, inbox.retention, "inbox is pruned even though the audit archive failed")
}

func TestPruneArchivesProcessor_Cancelled(t *testing.T) {
	inbox := &fakeArchive{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PruneArchivesProcessor(map[string]Archive{"inbox": inbox})(ctx, PruneArchivesTask{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inbox.retention)
}

func TestPruneArchivesProcessor_NoArchives(t *testing.T) {
	assert.Error(t, PruneArchivesProcessor(nil)(context.Background(), PruneArchivesTask{}))
	assert.Equal(t, "prune_archives", PruneArchivesTask{}.Config().Name)
}
