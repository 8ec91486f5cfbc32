// Package pid provides the heading PID loop shared by the drive and turn
// controls.
//
// The loop has no notion of time: integral and derivative terms are
// accumulated per call, so callers must invoke Update at a steady cadence.
// Output is not clamped; callers clamp to their own operating range.
package pid

type Loop struct {
	kP, kI, kD float64

	integral  float64
	lastError float64
}

func New(kP, kI, kD float64) *Loop {
	return &Loop{
		kP: kP,
		kI: kI,
		kD: kD,
	}
}

// Update returns the effort needed to move current towards target.
// Positive effort means target is clockwise of current.
func (l *Loop) Update(current, target float64) float64 {
	err := target - current

	l.integral += err
	derivative := err - l.lastError
	l.lastError = err

	return l.kP*err + l.kI*l.integral + l.kD*derivative
}

// Reset drops the accumulated integral and derivative history. Call it when
// switching between drive and turn if both share a loop.
func (l *Loop) Reset() {
	l.integral = 0
	l.lastError = 0
}

func (l *Loop) Gains() (kP, kI, kD float64) {
	return l.kP, l.kI, l.kD
}
