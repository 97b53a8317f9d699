package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginChecker_AllowAll(t *testing.T) {
	oc := NewOriginChecker([]string{"*"})

	assert.True(t, oc.Check(requestWithOrigin("https://anywhere.example")))
	assert.True(t, oc.Check(requestWithOrigin("")))
}

func TestOriginChecker_Allowlist(t *testing.T) {
	oc := NewOriginChecker([]string{"https://migoyugo.example"})

	assert.True(t, oc.Check(requestWithOrigin("https://migoyugo.example")))
	// 大小写不敏感
	assert.True(t, oc.Check(requestWithOrigin("HTTPS://MIGOYUGO.EXAMPLE")))
	assert.False(t, oc.Check(requestWithOrigin("https://evil.example")))
	// 无 Origin 头视为同源请求
	assert.True(t, oc.Check(requestWithOrigin("")))
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "10.0.0.1:4567"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))

	// X-Forwarded-For 优先，取第一个 IP
	r.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1")
	assert.Equal(t, "198.51.100.2", GetClientIP(r))
}

func TestGenerateGuestName(t *testing.T) {
	name := GenerateGuestName()
	assert.Regexp(t, `^Guest\d{4}$`, name)

	player := GeneratePlayerName()
	assert.Regexp(t, `^Player\d{4}$`, player)
}
