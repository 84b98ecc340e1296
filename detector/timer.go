package detector

// Timer fires on its first Advance and then once per period of accumulated
// time. A zero period fires on every Advance.
type Timer struct {
	period  float64
	elapsed float64
	started bool
}

func NewTimer(period float64) *Timer {
	return &Timer{period: period}
}

// SetPeriod changes the period without resetting accumulated time.
func (t *Timer) SetPeriod(period float64) {
	t.period = period
}

func (t *Timer) Period() float64 {
	return t.period
}

// Advance adds dt seconds and reports whether the timer fired. At most one
// firing is reported per call even when dt spans several periods.
func (t *Timer) Advance(dt float64) bool {
	if !t.started {
		t.started = true
		t.elapsed = 0
		return true
	}
	if t.period <= 0 {
		return true
	}
	t.elapsed += dt
	if t.elapsed+1e-9 < t.period {
		return false
	}
	t.elapsed -= t.period
	if t.elapsed >= t.period {
		t.elapsed = 0
	}
	return true
}
