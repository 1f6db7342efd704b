// Package permissions parses the octal mode strings accepted on the command
// line for unpacked files and directories.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseMode parses "644", "0644" or "0o644". An empty string yields def.
func ParseMode(s string, def os.FileMode) (os.FileMode, error) {
	if s == "" {
		return def, nil
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0")
	if digits == "" {
		digits = "0"
	}
	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil || val > 0o777 {
		return def, fmt.Errorf("invalid permission string %q", s)
	}

	return os.FileMode(val), nil
}

// FormatMode renders the permission bits of mode as "0NNN".
func FormatMode(mode os.FileMode) string {
	return fmt.Sprintf("0%03o", mode.Perm())
}

// Traversable reports whether the owner can enter a directory with this mode.
func Traversable(mode os.FileMode) bool {
	return mode&0o100 != 0
}
