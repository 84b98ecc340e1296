package detector

import "testing"

func TestTimerCadence(t *testing.T) {
	tests := []struct {
		name   string
		period float64
		dt     float64
		ticks  int
		want   []int
	}{
		{"fires_at_zero_then_every_period", 0.1, 1.0 / 60, 14, []int{0, 6, 12}},
		{"zero_period_every_tick", 0, 1.0 / 60, 3, []int{0, 1, 2}},
		{"period_shorter_than_tick", 0.01, 0.05, 3, []int{0, 1, 2}},
		{"long_period", 1, 0.25, 9, []int{0, 4, 8}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			timer := NewTimer(tc.period)
			var fired []int
			for i := 0; i < tc.ticks; i++ {
				if timer.Advance(tc.dt) {
					fired = append(fired, i)
				}
			}
			if len(fired) != len(tc.want) {
				t.Fatalf("fired at %v, want %v", fired, tc.want)
			}
			for i := range fired {
				if fired[i] != tc.want[i] {
					t.Fatalf("fired at %v, want %v", fired, tc.want)
				}
			}
		})
	}
}
