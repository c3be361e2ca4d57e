package sms_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allyourbase/smspool/internal/sms"
)

func newMessage(t *testing.T, to any, body string) *sms.Message {
	t.Helper()
	msg := sms.NewMessage()
	require.NoError(t, msg.SetRecipients(to))
	msg.SetBody(body)
	return msg
}

// respond returns a server that answers every request with status and body.
func respond(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
