package sha256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want string
	}{
		{body: "hello world", want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{body: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}
	h := New()
	for _, tt := range tests {
		got, err := h.Hash([]byte(tt.body))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestHasherDistinguishesWhitespace(t *testing.T) {
	t.Parallel()

	h := New()
	a, err := h.Hash([]byte("Great service"))
	require.NoError(t, err)
	b, err := h.Hash([]byte("Great service "))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "bodies are compared exactly")
}
