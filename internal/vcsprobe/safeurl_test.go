package vcsprobe

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://github.com/org/repo", true},
		{"https://gitlab.example.org/group/sub/repo.git", true},
		{"http://github.com/org/repo", false},
		{"git@github.com:org/repo.git", false},
		{"ssh://git@github.com/org/repo", false},
		{"https://localhost/repo", false},
		{"https://LOCALHOST/repo", false},
		{"https://127.0.0.1/repo", false},
		{"https://0.0.0.0/repo", false},
		{"https://[::1]/repo", false},
		{"https://8.8.8.8/repo", false},
		{"https://10.0.0.5/repo", false},
		{"https://[2001:4860:4860::8888]/repo", false},
		{"https://999.1.1.1/repo", false},
		{"https:///repo", false},
		{"", false},
		{"::not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeURL(tt.url))
		})
	}
}

func TestNormalizeRepoURL(t *testing.T) {
	assert.Equal(t, "https://github.com/o/r", NormalizeRepoURL("https://github.com/o/r"))
	assert.Equal(t, "https://github.com/o/r", NormalizeRepoURL("https://github.com/o/r/"))
	assert.Equal(t, "https://github.com/o/r", NormalizeRepoURL("https://github.com/o/r.git"))
	assert.Equal(t, "https://github.com/o/r", NormalizeRepoURL("https://github.com/o/r.git/"))
	assert.Equal(t, "https://github.com/o/r.git/info/refs?service=git-upload-pack",
		InfoRefsURL("https://github.com/o/r.git"))
}

func TestGuardDial(t *testing.T) {
	assert.NoError(t, guardDial("tcp", "140.82.112.3:443", nil))
	assert.ErrorIs(t, guardDial("tcp", "127.0.0.1:443", nil), errUnsafeAddress)
	assert.ErrorIs(t, guardDial("tcp", "192.168.1.10:443", nil), errUnsafeAddress)
	assert.ErrorIs(t, guardDial("tcp", "169.254.169.254:80", nil), errUnsafeAddress)
	assert.ErrorIs(t, guardDial("tcp6", "[::1]:443", nil), errUnsafeAddress)
	assert.ErrorIs(t, guardDial("tcp6", "[fe80::1]:443", nil), errUnsafeAddress)
	assert.Error(t, guardDial("tcp", "no-port", nil))
}

func TestIsPublicIP(t *testing.T) {
	assert.True(t, isPublicIP(net.ParseIP("8.8.8.8")))
	assert.False(t, isPublicIP(net.ParseIP("0.0.0.0")))
	assert.False(t, isPublicIP(net.ParseIP("224.0.0.1")))
	assert.False(t, isPublicIP(net.ParseIP("fc00::1")))
}
