package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		l := New(env)
		assert.NotNil(t, l, env)
		l.Infow("logger ready", "env", env)
	}
}
