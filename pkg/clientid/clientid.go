// Package clientid derives rate-limiting identifiers from HTTP requests.
//
// The identifier combines the client IP with a truncated User-Agent, so
// distinct browsers behind the same NAT are still told apart, while the same
// browser arriving through a different proxy cannot trivially dodge its
// bucket. The combination is hashed so identifiers are fixed-width and carry
// no raw client data into logs or map keys.
package clientid

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/cityscout-app/cityscout/pkg/clientip"
)

const (
	identifierVersion = "v1:"
	// maxUserAgentLen bounds the User-Agent contribution; anything beyond
	// this adds no distinguishing power and lets clients inflate keys.
	maxUserAgentLen = 64
	// identifierHashLen uses 16 bytes (128 bits), plenty for telling
	// clients apart at half the storage of a full SHA-256.
	identifierHashLen = 16
)

// Derive returns the rate-limiting identifier for the request in the format
// "v1:hash". Requests with no resolvable IP still get a stable identifier
// from the remaining components.
func Derive(r *http.Request) string {
	ua := r.UserAgent()
	if len(ua) > maxUserAgentLen {
		ua = ua[:maxUserAgentLen]
	}

	// Pipe delimiter prevents ("ab","c") and ("a","bc") from colliding.
	combined := strings.Join([]string{clientip.GetIP(r), ua}, "|")
	hash := sha256.Sum256([]byte(combined))

	return identifierVersion + hex.EncodeToString(hash[:identifierHashLen])
}
