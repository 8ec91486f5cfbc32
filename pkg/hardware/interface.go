package hardware

// RawControl drives the left and right motors directly. Speeds are signed,
// full scale at ±127.
type RawControl interface {
	SetMotorSpeeds(left, right int8) error
}

// MaxMotorSpeed is the speed a normalised velocity of 1 maps to.
const MaxMotorSpeed = 127
