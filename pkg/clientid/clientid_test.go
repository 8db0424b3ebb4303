package clientid_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cityscout-app/cityscout/pkg/clientid"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	t.Run("stable for identical requests", func(t *testing.T) {
		t.Parallel()

		r1 := httptest.NewRequest("GET", "/", nil)
		r1.RemoteAddr = "203.0.113.7:1000"
		r1.Header.Set("User-Agent", "Mozilla/5.0")

		r2 := httptest.NewRequest("GET", "/", nil)
		r2.RemoteAddr = "203.0.113.7:2000"
		r2.Header.Set("User-Agent", "Mozilla/5.0")

		assert.Equal(t, clientid.Derive(r1), clientid.Derive(r2))
	})

	t.Run("distinguishes browsers behind the same address", func(t *testing.T) {
		t.Parallel()

		r1 := httptest.NewRequest("GET", "/", nil)
		r1.RemoteAddr = "203.0.113.7:1000"
		r1.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh)")

		r2 := httptest.NewRequest("GET", "/", nil)
		r2.RemoteAddr = "203.0.113.7:1000"
		r2.Header.Set("User-Agent", "curl/8.4.0")

		assert.NotEqual(t, clientid.Derive(r1), clientid.Derive(r2))
	})

	t.Run("distinguishes addresses with the same browser", func(t *testing.T) {
		t.Parallel()

		r1 := httptest.NewRequest("GET", "/", nil)
		r1.RemoteAddr = "203.0.113.7:1000"
		r1.Header.Set("User-Agent", "Mozilla/5.0")

		r2 := httptest.NewRequest("GET", "/", nil)
		r2.RemoteAddr = "203.0.113.8:1000"
		r2.Header.Set("User-Agent", "Mozilla/5.0")

		assert.NotEqual(t, clientid.Derive(r1), clientid.Derive(r2))
	})

	t.Run("truncates oversized user agents", func(t *testing.T) {
		t.Parallel()

		base := strings.Repeat("a", 64)

		r1 := httptest.NewRequest("GET", "/", nil)
		r1.RemoteAddr = "203.0.113.7:1000"
		r1.Header.Set("User-Agent", base+"-first-tail")

		r2 := httptest.NewRequest("GET", "/", nil)
		r2.RemoteAddr = "203.0.113.7:1000"
		r2.Header.Set("User-Agent", base+"-second-tail")

		assert.Equal(t, clientid.Derive(r1), clientid.Derive(r2))
	})

	t.Run("version-prefixed fixed-width format", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:1000"

		id := clientid.Derive(r)
		assert.True(t, strings.HasPrefix(id, "v1:"))
		assert.Len(t, id, 35)
	})
}
