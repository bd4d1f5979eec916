package wal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Op string `json:"op"`
	N  int    `json:"n"`
}

func TestAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	w, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Append(entry{Op: "open", N: 1}))
	require.NoError(t, w.Append(entry{Op: "close", N: 1}))

	var got []entry
	err = w.Replay(func(_ int, raw json.RawMessage) error {
		var e entry
		require.NoError(t, json.Unmarshal(raw, &e))
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []entry{{"open", 1}, {"close", 1}}, got)

	// 重播後仍可繼續寫在檔尾
	require.NoError(t, w.Append(entry{Op: "open", N: 2}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"op\":\"open\",\"n\":1}\n{\"op\":\"close\",\"n\":1}\n{\"op\":\"open\",\"n\":2}\n", string(data))
}

func TestReplayReportsCorruptEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"op\":\"open\"}\n{not json\n"), FileModeDefault))

	w, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	seen := 0
	err = w.Replay(func(int, json.RawMessage) error {
		seen++
		return nil
	})
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, 1, seen)
}

func TestReplayDropsTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"op\":\"open\",\"n\":1}\n{\"op\":\"clo"), FileModeDefault))

	w, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	var got []entry
	err = w.Replay(func(_ int, raw json.RawMessage) error {
		var e entry
		require.NoError(t, json.Unmarshal(raw, &e))
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []entry{{"open", 1}}, got)

	require.NoError(t, w.Append(entry{Op: "close", N: 1}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"op\":\"open\",\"n\":1}\n{\"op\":\"close\",\"n\":1}\n", string(data))
}

func TestAppendFailureLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	w, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Append(entry{Op: "open", N: 1}))
	assert.Error(t, w.Append(map[string]any{"bad": make(chan int)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"op\":\"open\",\"n\":1}\n", string(data))
}
