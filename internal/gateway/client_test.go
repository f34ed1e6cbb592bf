package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendText(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/message/sendText/conn-1", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("apikey"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "5511999990001", body["number"])
			assert.Equal(t, "olá!", body["text"])

			_, _ = w.Write([]byte(`{"status":"DELIVERED"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", 5*time.Second)
		result, err := client.SendText(context.Background(), "conn-1", "5511999990001", "olá!")

		require.NoError(t, err)
		assert.Equal(t, ResultDelivered, result.Result)
	})

	t.Run("pending maps to sent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"status":"PENDING"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", 5*time.Second)
		result, err := client.SendText(context.Background(), "conn-1", "5511999990001", "olá!")

		require.NoError(t, err)
		assert.Equal(t, ResultSent, result.Result)
	})

	t.Run("gateway reports failure with detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ERROR","detail":"number not on whatsapp"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", 5*time.Second)
		result, err := client.SendText(context.Background(), "conn-1", "5511999990001", "olá!")

		require.NoError(t, err)
		assert.Equal(t, ResultFailed, result.Result)
		assert.Equal(t, "number not on whatsapp", result.Detail)
	})

	t.Run("unexpected HTTP status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("instance unavailable"))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", 5*time.Second)
		result, err := client.SendText(context.Background(), "conn-1", "5511999990001", "olá!")

		assert.Nil(t, result)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "instance unavailable")
	})
}
