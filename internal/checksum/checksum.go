// Package checksum computes the content digests recorded in the sidecar.
//
// Format: "algorithm:hexvalue" (e.g., "sha256:c0ffee123...").
package checksum

import (
	_ "crypto/sha256" // registers digest.SHA256
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Algorithm used for new digests.
var Algorithm = digest.SHA256

// Calculate returns the prefixed digest of data.
func Calculate(data []byte) string {
	return Algorithm.FromBytes(data).String()
}

// Verify reports whether data matches a prefixed digest string. An empty
// expected digest is treated as unknown and returns an error.
func Verify(data []byte, expected string) (bool, error) {
	if expected == "" {
		return false, fmt.Errorf("no digest recorded")
	}
	d, err := digest.Parse(expected)
	if err != nil {
		return false, fmt.Errorf("invalid digest %q: %w", expected, err)
	}
	if !d.Algorithm().Available() {
		return false, fmt.Errorf("unsupported digest algorithm: %s", d.Algorithm())
	}
	return d.Algorithm().FromBytes(data) == d, nil
}
