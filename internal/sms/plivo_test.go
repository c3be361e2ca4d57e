package sms_test

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyourbase/smspool/internal/sms"
)

func newPlivo(t *testing.T, baseURL string) *sms.PlivoProvider {
	t.Helper()
	p, err := sms.NewPlivoProvider(sms.PlivoConfig{
		AuthID:    "PLIVO_AUTH_ID",
		AuthToken: "PLIVO_AUTH_TOKEN",
		From:      "+15550000000",
		BaseURL:   baseURL,
	})
	require.NoError(t, err)
	return p
}

func TestPlivoSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/Account/PLIVO_AUTH_ID/Message/", r.URL.Path)

		auth := r.Header.Get("Authorization")
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("PLIVO_AUTH_ID:PLIVO_AUTH_TOKEN"))
		assert.Equal(t, expected, auth)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var reqBody map[string]string
		require.NoError(t, json.Unmarshal(body, &reqBody))
		assert.Equal(t, "+15550000000", reqBody["src"])
		assert.Equal(t, "+15551234567", reqBody["dst"])
		assert.Equal(t, "Your code is 123456", reqBody["text"])

		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"message_uuid":["abc-123-uuid"],"api_id":"api-xyz","message":"message(s) queued"}`))
	}))
	defer srv.Close()

	msg := newMessage(t, "+15551234567", "Your code is 123456")
	ok, err := newPlivo(t, srv.URL).Send(t.Context(), msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sms.StatusSent, msg.Status())
	assert.Equal(t, "abc-123-uuid", msg.ID())
}

func TestPlivoSendMultipleRecipients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "+15551234567<+15557654321", reqBody["dst"])

		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"message_uuid":["uuid-1","uuid-2"]}`))
	}))
	defer srv.Close()

	msg := newMessage(t, []string{"+15551234567", "+15557654321"}, "hi")
	ok, err := newPlivo(t, srv.URL).Send(t.Context(), msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "uuid-1,uuid-2", msg.ID())
}

func TestPlivoSendError(t *testing.T) {
	srv := respond(t, http.StatusBadRequest, `{"api_id":"api-xyz","error":"invalid destination number"}`)

	msg := newMessage(t, "+15551234567", "hello")
	ok, err := newPlivo(t, srv.URL).Send(t.Context(), msg)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, sms.StatusFailed, msg.Status())
	require.NotNil(t, msg.Error())
	assert.Contains(t, msg.Error().Error(), "invalid destination number")
}

func TestPlivoSendEmptyMessageUUID(t *testing.T) {
	// Plivo returns 202 with an empty message_uuid array.
	srv := respond(t, http.StatusAccepted, `{"message_uuid":[],"api_id":"api-xyz","message":"message(s) queued"}`)

	msg := newMessage(t, "+15551234567", "hello")
	ok, err := newPlivo(t, srv.URL).Send(t.Context(), msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", msg.ID())
	assert.Equal(t, &sms.SendResult{Status: "queued"}, msg.Response())
}

func TestPlivoSendErrorNonJSON(t *testing.T) {
	srv := respond(t, http.StatusBadGateway, `<html>Bad Gateway</html>`)

	msg := newMessage(t, "+15551234567", "hello")
	_, err := newPlivo(t, srv.URL).Send(t.Context(), msg)
	require.NoError(t, err)
	require.NotNil(t, msg.Error())
	assert.Contains(t, msg.Error().Error(), "plivo: error 502")
	assert.Contains(t, msg.Error().Error(), "Bad Gateway")
}

func TestPlivoSendNetworkError(t *testing.T) {
	msg := newMessage(t, "+15551234567", "hello")
	ok, err := newPlivo(t, "http://127.0.0.1:1").Send(t.Context(), msg)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, msg.Error())
	assert.Contains(t, msg.Error().Error(), "plivo: send request:")
}

func TestPlivoImplementsInterface(t *testing.T) {
	var _ sms.Provider = (*sms.PlivoProvider)(nil)
}
