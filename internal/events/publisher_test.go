package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Envelope(t *testing.T) {
	e := NewEvent(PostDeleted, map[string]uint{"post_id": 7})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, PostDeleted, e.Type)

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"post.deleted"`)
	assert.Contains(t, string(raw), `"post_id":7`)
}

func TestRecorder_FiltersByType(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	require.NoError(t, r.Publish(ctx, NotificationCreated, 1))
	require.NoError(t, r.Publish(ctx, PostDeleted, 2))
	require.NoError(t, r.Publish(ctx, NotificationCreated, 3))

	got := r.Events(NotificationCreated)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[1].Payload)
	assert.NoError(t, NoopPublisher{}.Publish(ctx, PostDeleted, nil))
}
