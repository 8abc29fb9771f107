package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var out bytes.Buffer
	logger := NewRollbarLogger(log.New(&out, "TEST : ", 0), &core.Config{Env: "TEST", Build: "test"})
	logger.Enable(false)

	actor := user.User{ID: "42", Username: "admin@x.com", Email: "admin@x.com"}
	logger.Error("Failed to send email to teacher t1@x.com", errors.New("smtp down"), actor)
	logger.Info("Application initializing")
	logger.Warn("seed admin lacks role", map[string]interface{}{"email": "admin@example.com"})

	got := out.String()
	assert.Contains(t, got, "TEST : Failed to send email to teacher t1@x.com")
	assert.Contains(t, got, "smtp down")
	assert.Contains(t, got, "Application initializing")
	assert.Contains(t, got, "admin@example.com")
	assert.NotContains(t, got, "admin@x.com", "the acting user is not printed")
}
