package matching

// behavioral averages the two profiles' engagement. A profile without history
// counts as the neutral midpoint; when neither has history the sub-score is
// the neutral score, unmeasured.
func behavioral(a, b *Profile, neutral float64) (float64, bool) {
	ea, okA := a.Activity.engagement()
	eb, okB := b.Activity.engagement()
	if !okA && !okB {
		return neutral, false
	}
	if !okA {
		ea = neutral / 100
	}
	if !okB {
		eb = neutral / 100
	}
	return 100 * (ea + eb) / 2, true
}
