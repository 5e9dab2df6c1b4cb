// Package dedup provides the session-scoped content fingerprint set
// used to drop duplicate signals across crawlers and search calls.
package dedup

import (
	"crypto/md5" //nolint:gosec // fingerprinting, not security
	"encoding/hex"
	"sync"
)

const contentPrefixLen = 200

// Fingerprint hashes the canonical URL when present, otherwise the
// title plus the first 200 characters of the content.
func Fingerprint(url, title, content string) string {
	if url != "" {
		return hash(url)
	}

	if len(content) > contentPrefixLen {
		content = content[:contentPrefixLen]
	}

	return hash(title + "|" + content)
}

func hash(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // fingerprinting, not security

	return hex.EncodeToString(sum[:])
}

// Set is a concurrency-safe seen-set of fingerprints. One Set lives
// for the duration of a crawl session.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add records a fingerprint and reports whether it was new.
// The first-seen instance of a duplicate group wins.
func (s *Set) Add(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[fp]; dup {
		return false
	}

	s.seen[fp] = struct{}{}

	return true
}

// Contains reports whether a fingerprint has been seen.
func (s *Set) Contains(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[fp]

	return ok
}

// Len returns the number of distinct fingerprints seen.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}
