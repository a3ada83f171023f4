package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

func TestStore_SaveLoadListDelete(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions"))

	sess := New("mock", "mock")
	sess.Title = "Test Session"
	sess.History = []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "Hello"},
		{Role: engine.RoleAssistant, Content: "Hi there"},
	}
	require.NoError(t, store.Save(sess))
	assert.FileExists(t, filepath.Join(store.Dir(), sess.ID+".json"))

	loaded, err := store.Load(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "Test Session", loaded.Title)
	assert.Equal(t, sess.History, loaded.History)
	assert.Equal(t, "mock", loaded.Provider)

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Test Session", list[0].Title)
	assert.Equal(t, 2, list[0].Messages)

	require.NoError(t, store.Delete(sess.ID))
	_, err = store.Load(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(sess.ID), ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore(t.TempDir())

	older := New("mock", "mock")
	older.Title = "older"
	require.NoError(t, store.Save(older))
	time.Sleep(10 * time.Millisecond)
	newer := New("mock", "mock")
	newer.Title = "newer"
	require.NoError(t, store.Save(newer))

	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{"), 0o644))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
	assert.Equal(t, "older", list[1].Title)
}

func TestStore_ListMissingDir(t *testing.T) {
	list, err := NewStore(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_RejectsBadIDs(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, store.Delete("not-a-uuid"))
}

func TestStore_RejectsInvalidHistory(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := New("mock", "mock")
	sess.History = []engine.ChatMessage{{Role: "robot", Content: "beep"}}
	data, err := json.Marshal(sess)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), sess.ID+".json"), data, 0o644))

	_, err = store.Load(sess.ID)
	assert.Error(t, err)
}
