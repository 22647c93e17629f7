package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher("", "")
	assert.Error(t, err)

	_, err = NewKafkaPublisher("  ", "topic")
	assert.Error(t, err)
}

func TestNewKafkaPublisher_Defaults(t *testing.T) {
	p, err := NewKafkaPublisher("kafka-1:9092, kafka-2:9092", "")
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, DefaultTopic, p.w.Topic)
}

func TestEvent_WireShape(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(Event{
		Type:    PostApprovalSet,
		PostID:  "p1",
		ActorID: "client-1",
		Status:  domain.StatusApproved,
		At:      at,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "post.approval_set", got["type"])
	assert.Equal(t, "p1", got["postId"])
	assert.Equal(t, "Approved", got["status"])
	assert.NotContains(t, got, "commentId")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: PostDeleted, PostID: "x"}))
	assert.NoError(t, p.Close())
}
