package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	assert.Equal(t, "abcdef1", Info{CommitHash: "abcdef1234567"}.Short())
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
}

func TestString(t *testing.T) {
	s := Info{CommitHash: "abcdef1234567", BuildTime: "now", Version: "v0.3.0", Platform: "linux/amd64"}.String()
	assert.Equal(t, "slideinspo v0.3.0 (commit abcdef1, built now, linux/amd64)", s)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "slideinspo/dev", Get().UserAgent())
}
