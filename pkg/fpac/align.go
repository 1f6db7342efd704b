package fpac

// The four helpers below define the byte layout of the format. Their corner
// cases differ on purpose and must not be unified.

// NeededToAlign returns the zero padding needed to bring size up to the next
// multiple of step, or 0 if size is already aligned.
func NeededToAlign(size, step int) int {
	rem := size % step
	if rem == 0 {
		return 0
	}
	return step - rem
}

// NeededToAlignWithExcess is NeededToAlign without the aligned special case:
// an aligned size yields a full step of padding, never 0.
func NeededToAlignWithExcess(size, step int) int {
	return step - size%step
}

// PadToNearest returns size rounded up to the next multiple of step.
//
// When size is already a multiple of step it returns 0, not size. Existing
// archives were laid out with this behavior, so it stays.
func PadToNearest(size, step int) int {
	rem := size % step
	if rem == 0 {
		return 0
	}
	return size + (step - rem)
}

// PadToNearestWithExcess returns size rounded up past the next multiple of
// step; the result is always strictly greater than size.
func PadToNearestWithExcess(size, step int) int {
	return size + (step - size%step)
}
