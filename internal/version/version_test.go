package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	defer func(v, sha, bt string) { Version, GitSHA, BuildTime = v, sha, bt }(Version, GitSHA, BuildTime)

	Version, GitSHA, BuildTime = "1.4.0", "abc1234", "2026-10-01T12:00:00Z"
	assert.Equal(t, "comboer 1.4.0 (abc1234, built 2026-10-01T12:00:00Z)", String())
}
