// Package dedupe detects near-duplicate images against posting history
// using perceptual hashes.
package dedupe

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"

	"github.com/sinhau/pixelbliss/internal/domain/model"
)

// PhashHex computes the perceptual hash of an image as a 16-digit hex string.
func PhashHex(img image.Image) (string, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("perception hash: %w", err)
	}
	return fmt.Sprintf("%016x", hash.GetHash()), nil
}

// Distance returns the Hamming distance between two hash hex strings.
func Distance(a, b string) (int, error) {
	ha, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", a, err)
	}
	hb, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", b, err)
	}
	return bits.OnesCount64(ha ^ hb), nil
}

// IsDuplicate reports whether hashHex is within distanceMin of any recent
// hash. The threshold is strict: a distance exactly equal to distanceMin is
// NOT a duplicate. Unparseable history entries are skipped. Short-circuits
// on the first match.
func IsDuplicate(hashHex string, recentHashes []string, distanceMin int) bool {
	for _, recent := range recentHashes {
		d, err := Distance(hashHex, recent)
		if err != nil {
			continue
		}
		if d < distanceMin {
			return true
		}
	}
	return false
}

// FirstUnique walks candidates (expected sorted by final score descending)
// and returns the first one whose perceptual hash is not a duplicate of the
// recent history, together with its hash and the number of duplicates
// skipped. A candidate that cannot be hashed is accepted as unique, matching
// the graceful-degradation stance of the rest of the pipeline. Returns nil
// when every candidate is a near-duplicate.
func FirstUnique(candidates []*model.Candidate, recentHashes []string, distanceMin int) (*model.Candidate, string, int) {
	skipped := 0
	for _, c := range candidates {
		hash, err := PhashHex(c.Image)
		if err != nil {
			return c, "", skipped
		}
		if IsDuplicate(hash, recentHashes, distanceMin) {
			skipped++
			continue
		}
		return c, hash, skipped
	}
	return nil, "", skipped
}
