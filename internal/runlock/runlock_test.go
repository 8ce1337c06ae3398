package runlock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	t.Run("second acquire fails while held", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weibobot.lock")

		first, err := Acquire(path, "")
		require.NoError(t, err)
		defer first.Release()

		_, err = Acquire(path, "")
		assert.ErrorIs(t, err, ErrHeld)
	})

	t.Run("released lock can be taken again", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weibobot.lock")

		first, err := Acquire(path, "")
		require.NoError(t, err)
		require.NoError(t, first.Release())

		second, err := Acquire(path, "")
		require.NoError(t, err)
		assert.NoError(t, second.Release())
	})

	t.Run("records owner", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "weibobot.lock")

		lock, err := Acquire(path, "pid=42\n")
		require.NoError(t, err)
		defer lock.Release()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "pid=42\n", string(data))
		assert.Equal(t, path, lock.Path())
	})

	t.Run("release is idempotent", func(t *testing.T) {
		lock, err := Acquire(filepath.Join(t.TempDir(), "weibobot.lock"), "")
		require.NoError(t, err)

		assert.NoError(t, lock.Release())
		assert.NoError(t, lock.Release())

		var nilLock *Lock
		assert.NoError(t, nilLock.Release())
	})
}
