package testutil

import (
	"os"
	"strings"
	"testing"
)

// IsolateEnv unsets every environment variable starting with prefix and
// registers a t.Cleanup that restores them. Use it at the top of tests that
// load configuration from the environment so values set on the developer's
// machine do not leak in.
func IsolateEnv(t *testing.T, prefix string) {
	t.Helper()

	snapshot := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		snapshot[key] = value
		_ = os.Unsetenv(key)
	}

	t.Cleanup(func() {
		for _, kv := range os.Environ() {
			if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, prefix) {
				_ = os.Unsetenv(key)
			}
		}
		for k, v := range snapshot {
			_ = os.Setenv(k, v)
		}
	})
}
