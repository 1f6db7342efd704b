package fpac

// ToFixedLength returns exactly size bytes holding s. Longer strings are
// truncated silently; shorter ones are zero padded.
func ToFixedLength(s string, size int) []byte {
	buf := make([]byte, size)
	copy(buf, s)
	return buf
}
