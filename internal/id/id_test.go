package id

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- UUID Tests ---

func TestUUID_Format(t *testing.T) {
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, uuidRegex, UUID())
	}
}

// --- ULID Tests ---

func TestULID_SortsInGenerationOrder(t *testing.T) {
	ids := make([]string, 200)
	for i := range ids {
		ids[i] = ULID()
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	assert.Equal(t, ids, sorted)
}

func TestULID_ConcurrentUniqueness(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				v := ULID()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

// --- Resource Tests ---

func TestResource(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"plan", "test_plan_"},
		{"prod", "test_prod_"},
		{"", "test_"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := Resource(tt.prefix)
			assert.True(t, strings.HasPrefix(got, tt.want), "got %q", got)
			assert.Equal(t, strings.ToLower(got), got)
			assert.True(t, IsResource(got, tt.prefix))
		})
	}
}

func TestIsResource_RejectsForeignIDs(t *testing.T) {
	assert.False(t, IsResource("pid_1", "plan"))
	assert.False(t, IsResource(Resource("prod"), "plan"))
	assert.False(t, IsResource("test_plan_short", "plan"))
}

// --- Fingerprint Tests ---

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("4242424242424242")
	b := Fingerprint("4242424242424242")
	require.Equal(t, a, b)
	assert.Len(t, a, 16)
	assert.Regexp(t, `^[A-Za-z]+$`, a)
}

func TestFingerprint_DistinctSources(t *testing.T) {
	assert.NotEqual(t, Fingerprint("4242424242424242"), Fingerprint("4000056655665556"))
	assert.NotContains(t, Fingerprint("000123456789"), "000123456789")
}
