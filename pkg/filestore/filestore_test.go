package filestore

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentPath(t *testing.T) {
	now := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "attachments/2024/03/07/my_photo.png", AttachmentPath(now, "../../my photo.png"))
	assert.Equal(t, "profile_pics/me.jpg", AvatarPath(`C:\Users\me\me.jpg`))
}

func TestCleanPath(t *testing.T) {
	p, err := CleanPath("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", p)

	_, err = CleanPath("/")
	assert.Error(t, err)
}

func TestLocal_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(ctx, "attachments/2024/01/01/a.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "attachments/2024/01/01/a.txt", name)

	second, err := store.Save(ctx, "attachments/2024/01/01/a.txt", strings.NewReader("again"))
	require.NoError(t, err)
	assert.NotEqual(t, name, second)
	assert.True(t, strings.HasSuffix(second, ".txt"))

	rc, err := store.Open(ctx, name)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete(ctx, name))
	_, err = store.Open(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, name), ErrNotFound)
}
