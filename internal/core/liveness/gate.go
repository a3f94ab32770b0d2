package liveness

// CanCapture reports whether a frame may be captured: the IC must be valid and,
// when the challenge is enabled, the tracker must be satisfied
func CanCapture(icValid bool, t *Tracker, challengeEnabled bool) bool {
	if !icValid {
		return false
	}
	if !challengeEnabled {
		return true
	}
	return t != nil && t.IsSatisfied()
}
