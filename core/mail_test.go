package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type welcomeData struct {
	AppName  string
	Email    string
	Password string
}

func TestEmailMessage_Render(t *testing.T) {
	t.Run("template", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "t1@x.com"}},
			Subject:      "Your Teacher Account Credentials",
			TemplateName: "teacher_welcome",
			TemplateData: welcomeData{AppName: "ProjectPlatec", Email: "t1@x.com", Password: "1234"},
		}
		require.NoError(t, msg.Render())

		assert.True(t, msg.HasRecipients())
		assert.True(t, msg.HasContent())
		assert.Contains(t, msg.HTMLContent, "<h2>Welcome to ProjectPlatec</h2>")
		assert.Contains(t, msg.HTMLContent, "<li>Email: t1@x.com</li>")
		assert.Contains(t, msg.HTMLContent, "<li>Password: 1234</li>")
		assert.Contains(t, msg.HTMLContent, "Best regards,<br>ProjectPlatec Team")
		assert.Contains(t, msg.HTMLContent, "<title>Your Teacher Account Credentials</title>")
		assert.Contains(t, msg.TextContent, "Password: 1234")
		assert.Contains(t, msg.TextContent, "ProjectPlatec Team")
	})

	t.Run("html is escaped", func(t *testing.T) {
		msg := &EmailMessage{
			TemplateName: "teacher_welcome",
			TemplateData: welcomeData{AppName: "ProjectPlatec", Email: "<b>@x.com", Password: "a<b"},
		}
		require.NoError(t, msg.Render())
		assert.Contains(t, msg.HTMLContent, "Password: a&lt;b")
		assert.NotContains(t, msg.HTMLContent, "<b>@x.com")
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hello"}
		require.NoError(t, msg.Render())
		assert.Equal(t, "hello", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
		assert.False(t, msg.HasRecipients())
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "lol"}
		err := msg.Render()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})
}
