package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "audit")
	auditor := NewAuditor(tempDir)

	t.Run("SaveJSON creates audit directory and saves file", func(t *testing.T) {
		testData := map[string]any{
			"run_id": "run-1",
			"books":  []string{"a", "b"},
		}

		filename, err := auditor.SaveJSON(testData)
		require.NoError(t, err)
		assert.Contains(t, filename, ".json")

		content, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)

		var saved map[string]any
		require.NoError(t, json.Unmarshal(content, &saved))
		assert.Equal(t, "run-1", saved["run_id"])
		assert.Equal(t, []any{"a", "b"}, saved["books"])
	})

	t.Run("SavePayload keeps bytes verbatim", func(t *testing.T) {
		raw := []byte(`{"books": [ broken`)
		filename, err := auditor.SavePayload(raw)
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)
		assert.Equal(t, raw, content)
	})

	t.Run("unique filenames", func(t *testing.T) {
		filename1, err := auditor.SavePayload([]byte("{}"))
		require.NoError(t, err)
		filename2, err := auditor.SavePayload([]byte("{}"))
		require.NoError(t, err)
		assert.NotEqual(t, filename1, filename2)
	})
}

func TestAuditor_DeleteOlderThan(t *testing.T) {
	dir := t.TempDir()
	auditor := NewAuditor(dir)

	old, err := auditor.SavePayload([]byte("{}"))
	require.NoError(t, err)
	fresh, err := auditor.SavePayload([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, old), past, past))

	removed, err := auditor.DeleteOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, fresh))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestAuditor_DeleteMissingDir(t *testing.T) {
	removed, err := NewAuditor(filepath.Join(t.TempDir(), "absent")).DeleteOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
