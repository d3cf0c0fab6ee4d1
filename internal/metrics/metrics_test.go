package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.LikeToggled("post", true)
	m.LikeToggled("post", true)
	m.LikeToggled("comment", false)
	m.CommentCreated(true)
	m.NotificationCreated("reply")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.likesToggled.WithLabelValues("post", "liked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.likesToggled.WithLabelValues("comment", "unliked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commentsCreated.WithLabelValues("reply")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsCreated.WithLabelValues("reply")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LikeToggled("post", true)
		m.CommentCreated(false)
		m.NotificationCreated("like")
		m.Request("GET", 200)
	})
}
