package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cityscout-app/cityscout/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	t.Run("falls back to remote address", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:51234"

		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("prefers CF-Connecting-IP over everything", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("CF-Connecting-IP", "198.51.100.2")
		r.Header.Set("X-Forwarded-For", "192.0.2.9")

		assert.Equal(t, "198.51.100.2", clientip.GetIP(r))
	})

	t.Run("takes the leftmost X-Forwarded-For entry", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "192.0.2.9, 10.0.0.1, 10.0.0.2")

		assert.Equal(t, "192.0.2.9", clientip.GetIP(r))
	})

	t.Run("skips invalid header values", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:51234"
		r.Header.Set("X-Forwarded-For", "not-an-ip")

		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("rejects the unspecified address", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:51234"
		r.Header.Set("X-Real-IP", "0.0.0.0")

		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("normalizes IPv6", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Real-IP", "2001:0db8:0000:0000:0000:0000:0000:0001")

		assert.Equal(t, "2001:db8::1", clientip.GetIP(r))
	})

	t.Run("empty when nothing is valid", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "garbage"

		assert.Empty(t, clientip.GetIP(r))
	})
}
