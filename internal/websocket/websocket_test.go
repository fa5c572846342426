package websocket

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wavecore/masterstream/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.allClients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.unicast)
	assert.NotNil(t, hub.metrics)
	assert.NotNil(t, hub.handlers)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(), "Request %d should be allowed", i+1)
	}

	assert.False(t, rl.Allow(), "Request 11 should be denied")

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.Allow(), "Request after wait should be allowed")
}

func TestNewMessage(t *testing.T) {
	payload := map[string]string{"test": "data"}
	msg := NewMessage(MessageTypeSystem, payload)

	assert.Equal(t, MessageTypeSystem, msg.Type)
	assert.NotNil(t, msg.Payload)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestNewMessageWithID(t *testing.T) {
	msg := NewMessageWithID(MessageTypePing, "msg-123", nil)

	assert.Equal(t, MessageTypePing, msg.Type)
	assert.Equal(t, "msg-123", msg.ID)
}

func TestNewReply(t *testing.T) {
	original := NewMessageWithID(MessageTypePing, "original-id", nil)
	reply := NewReply(original, MessageTypePong, nil)

	assert.Equal(t, MessageTypePong, reply.Type)
	assert.Equal(t, "original-id", reply.ReplyTo)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("test_error", "Something went wrong")

	assert.Equal(t, MessageTypeError, msg.Type)

	payload, ok := msg.Payload.(ErrorPayload)
	assert.True(t, ok)
	assert.Equal(t, "test_error", payload.Code)
	assert.Equal(t, "Something went wrong", payload.Message)
}

func TestMessageParsePayload(t *testing.T) {
	msg := NewMessage(MessageTypePing, map[string]interface{}{
		"client_time": float64(1234567890),
	})

	var ping PingPayload
	err := msg.ParsePayload(&ping)
	assert.NoError(t, err)
	assert.Equal(t, int64(1234567890), ping.ClientTime)
}

func TestMessageJSONSerialization(t *testing.T) {
	msg := NewMessage(MessageTypeJobProgress, JobProgressPayload{
		JobID:    "job-123",
		Progress: 42,
		Message:  "extracting",
	})
	msg.ID = "msg-id"

	data, err := json.Marshal(msg)
	assert.NoError(t, err)

	var parsed Message
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)

	assert.Equal(t, MessageTypeJobProgress, parsed.Type)
	assert.Equal(t, "msg-id", parsed.ID)
	assert.NotNil(t, parsed.Payload)
}

func TestChunkReadyPayloadRoundtrip(t *testing.T) {
	payload := ChunkReadyPayload{Track: "track-1", Index: 3, PresetHash: "abc123"}

	data, err := json.Marshal(payload)
	assert.NoError(t, err)

	var parsed ChunkReadyPayload
	require := assert.New(t)
	require.NoError(json.Unmarshal(data, &parsed))
	require.Equal(payload, parsed)
}

func TestPlayerStatePayloadRoundtrip(t *testing.T) {
	payload := PlayerStatePayload{Position: 12.5, IsPlaying: true, ActivePreset: "club", Intensity: 0.7}

	data, err := json.Marshal(payload)
	assert.NoError(t, err)

	var parsed PlayerStatePayload
	assert.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, payload, parsed)
}

func TestHubMetrics(t *testing.T) {
	hub := NewHub()

	metrics := hub.GetMetrics()
	assert.Equal(t, int64(0), metrics.TotalConnections)
	assert.Equal(t, int64(0), metrics.ActiveConnections)
	assert.Equal(t, int64(0), metrics.MessagesReceived)
	assert.Equal(t, int64(0), metrics.MessagesSent)

	str := metrics.String()
	assert.Contains(t, str, "connections=0/0")
}

func TestDefaultRateLimitConfig(t *testing.T) {
	config := DefaultRateLimitConfig()

	assert.Equal(t, 10, config.MaxMessagesPerSecond)
	assert.Equal(t, 20, config.BurstSize)
	assert.Equal(t, time.Second, config.Window)
}

func TestHubRegisterHandler(t *testing.T) {
	hub := NewHub()

	hub.RegisterHandler("test_type", func(client *Client, msg *Message) error {
		return nil
	})

	handler, ok := hub.GetHandler("test_type")
	assert.True(t, ok)
	assert.NotNil(t, handler)

	_, ok = hub.GetHandler("nonexistent")
	assert.False(t, ok)
}

func TestHubIsClientOnline(t *testing.T) {
	hub := NewHub()

	assert.False(t, hub.IsClientOnline("client-123"))
	assert.Equal(t, 0, hub.GetClientConnectionCount("client-123"))
}

func TestHubGetConnectedClientIDs(t *testing.T) {
	hub := NewHub()

	ids := hub.GetConnectedClientIDs()
	assert.Empty(t, ids)
}

func TestMessageTypes(t *testing.T) {
	types := []string{
		MessageTypeSystem,
		MessageTypePing,
		MessageTypePong,
		MessageTypeError,
		MessageTypeJobProgress,
		MessageTypeChunkReady,
		MessageTypePlayerState,
	}

	for _, typ := range types {
		assert.NotEmpty(t, typ)
	}

	seen := make(map[string]bool)
	for _, typ := range types {
		assert.False(t, seen[typ], "Duplicate message type: %s", typ)
		seen[typ] = true
	}
}

func TestProgressNotifierThrottlesPlayerState(t *testing.T) {
	hub := NewHub()
	notifier := NewProgressNotifier(hub, 50*time.Millisecond)

	notifier.NotifyPlayerState("client-1", PlayerStatePayload{Position: 1})
	notifier.NotifyPlayerState("client-1", PlayerStatePayload{Position: 2})

	time.Sleep(60 * time.Millisecond)
	notifier.NotifyPlayerState("client-1", PlayerStatePayload{Position: 3})

	// The hub is not running, so each send stays queued: the first and third
	// calls pass the throttle, the second falls inside the gap.
	assert.Equal(t, 2, len(hub.unicast))
}
