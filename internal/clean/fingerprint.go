package clean

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

var fingerprintStripRe = regexp.MustCompile(`[^\w\s]`)

// Fingerprint hashes content after lowercasing, collapsing whitespace, and
// dropping punctuation, so two renditions of the same article that differ
// only in surface formatting hash identically. Used purely for duplicate
// detection, never as a security primitive.
func Fingerprint(content string) string {
	normalized := spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(content)), " ")
	normalized = fingerprintStripRe.ReplaceAllString(normalized, "")

	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Deduper tracks seen URLs and content fingerprints across a batch. It is the
// only cross-record state in the pipeline and must be owned by a single
// sequential pass so "first occurrence wins" holds.
type Deduper struct {
	seenURLs   map[string]struct{}
	seenHashes map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{
		seenURLs:   make(map[string]struct{}),
		seenHashes: make(map[string]struct{}),
	}
}

// DetectDuplicates filters a batch down to first occurrences in one pass,
// dropping any item whose URL or content fingerprint was already seen. key
// extracts the URL, title and content of an item.
func DetectDuplicates[T any](items []T, key func(T) (url, title, content string)) []T {
	d := NewDeduper()
	unique := make([]T, 0, len(items))
	for _, item := range items {
		if d.Seen(key(item)) {
			continue
		}
		unique = append(unique, item)
	}
	return unique
}

// Seen reports whether an article with this URL or content fingerprint was
// already observed, recording it as seen otherwise.
func (d *Deduper) Seen(url, title, content string) bool {
	if _, ok := d.seenURLs[url]; ok {
		return true
	}

	hash := Fingerprint(title + " " + content)
	if _, ok := d.seenHashes[hash]; ok {
		return true
	}

	d.seenURLs[url] = struct{}{}
	d.seenHashes[hash] = struct{}{}
	return false
}
