package id

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// TestPrefix marks every identifier minted by the simulator.
const TestPrefix = "test"

// fingerprintLength is the number of characters kept from the digest.
const fingerprintLength = 16

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// UUID generates a UUID v4 (random).
func UUID() string {
	return uuid.NewString()
}

// ULID generates a monotonic ULID. Values generated within the same
// millisecond still sort in generation order.
func ULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Resource generates an identifier for a record of the given kind prefix,
// e.g. Resource("prod") -> "test_prod_01J9Z3...".
// An empty prefix yields "test_<ulid>".
func Resource(prefix string) string {
	suffix := strings.ToLower(ULID())
	if prefix == "" {
		return TestPrefix + "_" + suffix
	}
	return TestPrefix + "_" + prefix + "_" + suffix
}

// IsResource reports whether s looks like an identifier minted by Resource for prefix.
func IsResource(s, prefix string) bool {
	want := TestPrefix + "_"
	if prefix != "" {
		want += prefix + "_"
	}
	return strings.HasPrefix(s, want) && len(s) == len(want)+ulid.EncodedSize
}

// Fingerprint derives a stable identifier for a secret value: the SHA-1
// digest is base64 encoded, stripped to letters only, and cut to 16
// characters. The same source always yields the same fingerprint.
func Fingerprint(source string) string {
	sum := sha1.Sum([]byte(source))
	encoded := base64.StdEncoding.EncodeToString(sum[:])

	var b strings.Builder
	b.Grow(fingerprintLength)
	for i := 0; i < len(encoded) && b.Len() < fingerprintLength; i++ {
		c := encoded[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
