package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSensitiveHeaders(t *testing.T) {
	filtered := filterSensitiveHeaders(map[string]string{
		"X-Session-Id":  "abc-123",
		"Authorization": "Bearer s3cret",
		"cookie":        "genie_session=xyz",
		"X-Api-Key":     "k",
		"User-Agent":    "curl/8.0",
	})

	assert.Equal(t, "[REDACTED]", filtered["X-Session-Id"])
	assert.Equal(t, "[REDACTED]", filtered["Authorization"])
	assert.Equal(t, "[REDACTED]", filtered["cookie"])
	assert.Equal(t, "[REDACTED]", filtered["X-Api-Key"])
	assert.Equal(t, "curl/8.0", filtered["User-Agent"])
}
