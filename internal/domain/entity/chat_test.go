package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChat(t *testing.T) {
	chat := NewChat("proj-1")

	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "Hi, how can I help you today?", chat.Messages[0].Text)
	assert.Equal(t, "", chat.Messages[0].Request)
	assert.Equal(t, "proj-1", chat.ProjectID)
}

func TestChatPrepend(t *testing.T) {
	chat := NewChat("proj-1")

	chat.Prepend(Message{Request: "first", Timestamp: time.Now()})
	chat.Prepend(Message{Request: "second", Timestamp: time.Now()})

	require.Len(t, chat.Messages, 3)
	assert.Equal(t, "second", chat.Messages[0].Request)
	assert.Equal(t, "first", chat.Messages[1].Request)
	assert.Equal(t, "", chat.Messages[2].Request)

	latest := chat.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "second", latest.Request)
}

func TestChatLatestEmpty(t *testing.T) {
	chat := &Chat{ProjectID: "proj-1"}

	assert.Nil(t, chat.Latest())
}
