package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsolateEnvRestores(t *testing.T) {
	t.Setenv("ISOLATE_TEST_KEEP", "original")

	t.Run("isolated", func(t *testing.T) {
		IsolateEnv(t, "ISOLATE_TEST_")
		_, ok := os.LookupEnv("ISOLATE_TEST_KEEP")
		assert.False(t, ok)

		_ = os.Setenv("ISOLATE_TEST_NEW", "leak")
	})

	assert.Equal(t, "original", os.Getenv("ISOLATE_TEST_KEEP"))
	_, ok := os.LookupEnv("ISOLATE_TEST_NEW")
	assert.False(t, ok, "variables set inside the isolated test are removed")
}
