package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_StampsEpochMillis(t *testing.T) {
	before := time.Now().UnixMilli()
	event := NewEvent(EventConnected, nil)
	after := time.Now().UnixMilli()

	assert.Equal(t, EventConnected, event.Type)
	assert.GreaterOrEqual(t, event.Timestamp, before)
	assert.LessOrEqual(t, event.Timestamp, after)
}

func TestDecodeInboundPayload_TypedDecoding(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
		raw       string
		want      any
	}{
		{
			name:      "join workspace",
			eventType: EventJoinWorkspace,
			raw:       `{"workspaceId":"ws-1"}`,
			want:      JoinWorkspacePayload{WorkspaceID: "ws-1"},
		},
		{
			name:      "leave kanban",
			eventType: EventLeaveKanban,
			raw:       `{"kanbanId":"kb-1"}`,
			want:      LeaveKanbanPayload{KanbanID: "kb-1"},
		},
		{
			name:      "task update",
			eventType: EventTaskUpdate,
			raw:       `{"kanbanId":"kb-1","taskId":"t-1","status":"done"}`,
			want:      TaskUpdatePayload{KanbanID: "kb-1", TaskID: "t-1", Status: "done"},
		},
		{
			name:      "chat message",
			eventType: EventChatMessage,
			raw:       `{"threadId":"th-1","content":"hi"}`,
			want:      ChatMessagePayload{ThreadID: "th-1", Content: "hi"},
		},
		{
			name:      "typing start",
			eventType: EventTypingStart,
			raw:       `{"threadId":"th-1"}`,
			want:      TypingPayload{ThreadID: "th-1"},
		},
		{
			name:      "typing stop",
			eventType: EventTypingStop,
			raw:       `{"workspaceId":"ws-1"}`,
			want:      TypingPayload{WorkspaceID: "ws-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodeInboundPayload(tt.eventType, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload)
		})
	}
}

func TestDecodeInboundPayload_UnknownType(t *testing.T) {
	_, err := DecodeInboundPayload("made-up-type", nil)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestDecodeInboundPayload_ServerTypesAreNotInbound(t *testing.T) {
	// Server-to-client types must not be accepted from clients.
	for _, eventType := range []EventType{EventConnected, EventUserOffline, EventNotification, EventError} {
		_, err := DecodeInboundPayload(eventType, json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrUnknownEventType, string(eventType))
	}
}

func TestDecodeInboundPayload_MalformedPayload(t *testing.T) {
	_, err := DecodeInboundPayload(EventJoinWorkspace, json.RawMessage(`{"workspaceId":42}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownEventType)
}

func TestDecodeInboundPayload_EmptyPayloadYieldsZeroValue(t *testing.T) {
	payload, err := DecodeInboundPayload(EventTypingStart, nil)
	require.NoError(t, err)
	assert.Equal(t, TypingPayload{}, payload)
}

func TestEvent_WireFormat(t *testing.T) {
	event := Event{
		Type:      EventChatMessage,
		Payload:   ChatMessagePayload{ThreadID: "th-1", Content: "hi", MessageID: "m-1", UserID: "u-1"},
		Timestamp: 1700000000000,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "chat-message",
		"payload": {"threadId":"th-1","content":"hi","messageId":"m-1","userId":"u-1"},
		"timestamp": 1700000000000
	}`, string(data))
}
