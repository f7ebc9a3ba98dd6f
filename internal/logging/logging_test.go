package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		for _, format := range []string{"console", "json"} {
			logger, err := New(level, format)
			require.NoError(t, err, "level %s format %s", level, format)
			assert.NotNil(t, logger)
		}
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New("verbose", "console")
	assert.Error(t, err)
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New("info", "xml")
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	assert.NotNil(t, NewNop())
}
