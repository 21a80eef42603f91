package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig("test-token")
	cfg.BaseURL = srv.URL
	cfg.RetryAttempts = 0
	return NewClient(cfg)
}

func TestClient_SendMessageDeliversPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 42},
		})
	})

	msg, err := client.SendMarkdown(context.Background(), 123, "*готово*")
	require.NoError(t, err)

	assert.Equal(t, int64(42), msg.MessageID)
	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, float64(123), gotBody["chat_id"])
	assert.Equal(t, "Markdown", gotBody["parse_mode"])
}

func TestClient_SendSilentDisablesNotification(t *testing.T) {
	var gotBody map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": map[string]interface{}{}})
	})

	_, err := client.SendSilent(context.Background(), 7, "тихо")
	require.NoError(t, err)
	assert.Equal(t, true, gotBody["disable_notification"])
}

func TestClient_APIErrorsAreClassified(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"error_code":  403,
			"description": "Forbidden: bot was blocked by the user",
		})
	})

	_, err := client.SendText(context.Background(), 99, "привет")
	require.Error(t, err)
	assert.True(t, IsUserBlocked(err))
	assert.False(t, IsChatNotFound(err))
}

func TestNotifier_ForwardsDeliveryErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"error_code":  400,
			"description": "Bad Request: chat not found",
		})
	})

	err := NewNotifier(client).SendMarkdown(context.Background(), 5, "напоминание")
	require.Error(t, err)
	assert.True(t, IsChatNotFound(err))
}
