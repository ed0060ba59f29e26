package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hinata/core/internal/core/domain"
)

var allowedAccessLevels = map[domain.AccessLevel]bool{
	domain.AccessPrivate:    true,
	domain.AccessPublic:     true,
	domain.AccessRestricted: true,
}

// validateItem checks the structural/field requirements of spec §4.1
// step 1 and returns the parsed timestamp and deduplicated tags on
// success.
func validateItem(item RawObservation) (time.Time, []string, error) {
	if itemSizeBytes(item) > MaxItemBytes {
		return time.Time{}, nil, fmt.Errorf("item exceeds %d bytes", MaxItemBytes)
	}

	if strings.TrimSpace(item.Highlight) == "" {
		return time.Time{}, nil, fmt.Errorf("highlight is required")
	}

	if strings.TrimSpace(item.Address) == "" {
		return time.Time{}, nil, fmt.Errorf("address is required")
	}

	if !allowedAccessLevels[item.Access] {
		return time.Time{}, nil, fmt.Errorf("access %q is not a recognized access level", item.Access)
	}

	ts, err := time.Parse(time.RFC3339, item.Timestamp)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("timestamp %q is not parseable: %w", item.Timestamp, err)
	}

	return ts, dedupeTags(item.Tags), nil
}

// dedupeTags removes duplicate tags while preserving first-occurrence
// order (spec §3 "tags: ordered sequence of strings, duplicates removed").
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		if seen[tag] {
			continue
		}

		seen[tag] = true
		out = append(out, tag)
	}

	return out
}

// itemSizeBytes approximates the wire size of a raw item for the 64 KiB
// cap, summing its text fields rather than marshaling, since validation
// runs before any JSON encoding/decoding boundary.
func itemSizeBytes(item RawObservation) int {
	n := len(item.Timestamp) + len(item.Source) + len(item.Highlight) + len(item.Note) + len(item.Address)
	for _, tag := range item.Tags {
		n += len(tag)
	}

	return n
}

// contentHash computes the stable idempotency key of spec §4.1 step 2:
// a hash over (userId, source, highlight, note, address, sortedTags).
func contentHash(userID string, item RawObservation, tags []string) string {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s", userID, item.Source, item.Highlight, item.Note, item.Address, strings.Join(sorted, "\x01"))

	return hex.EncodeToString(h.Sum(nil))
}
