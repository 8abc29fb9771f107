package emailsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectplatec/platec/core"
)

var testConf = &core.Config{AppName: "ProjectPlatec", FromEmail: "ProjectPlatec <noreply@platec.test>", SendgridApiKey: "sg-key"}

func newMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: "A B", Address: "t1@x.com"}},
		Subject: "Your Teacher Account Credentials",
		BodyStr: "Password: 1234",
	}
}

func Test_consoleService_SendMessage(t *testing.T) {
	var out bytes.Buffer
	svc := newConsoleService(testConf, &out)

	require.NoError(t, svc.SendMessage(context.Background(), newMessage()))
	assert.Contains(t, out.String(), "From: \"ProjectPlatec\" <noreply@platec.test>")
	assert.Contains(t, out.String(), "Subject: Your Teacher Account Credentials")
	assert.Contains(t, out.String(), "To: \"A B\" <t1@x.com>")
	assert.Contains(t, out.String(), "Password: 1234")

	t.Run("no recipient", func(t *testing.T) {
		err := svc.SendMessage(context.Background(), &core.EmailMessage{BodyStr: "lol"})
		assert.Equal(t, errNothingToSend, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, svc.SendMessage(ctx, newMessage()), context.Canceled)
	})
}

func Test_sendgridService_SendMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "accepted", status: http.StatusAccepted},
		{name: "rejected", status: http.StatusUnauthorized, wantErr: true},
		{name: "provider down", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload map[string]interface{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v3/mail/send", r.URL.Path)
				assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
				body, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(body, &payload)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			svc := newSendgridService(testConf, srv.URL)
			err := svc.SendMessage(context.Background(), newMessage())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			require.NotNil(t, payload)
			personalizations := payload["personalizations"].([]interface{})
			require.Len(t, personalizations, 1)
			assert.Equal(t, "Your Teacher Account Credentials", personalizations[0].(map[string]interface{})["subject"])
		})
	}
}

func TestMock(t *testing.T) {
	svc := NewMock()
	require.NoError(t, svc.SendMessage(context.Background(), newMessage()))
	require.Len(t, svc.Sent(), 1)
	assert.Equal(t, "Password: 1234", svc.Sent()[0].TextContent)

	errDown := errors.New("smtp down")
	svc.Err = errDown
	assert.Equal(t, errDown, svc.SendMessage(context.Background(), newMessage()))
	assert.Len(t, svc.Sent(), 1)

	svc.Reset()
	assert.Empty(t, svc.Sent())
}
