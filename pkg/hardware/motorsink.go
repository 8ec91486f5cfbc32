package hardware

import (
	"context"

	"github.com/tigerbot-team/tigerbot/nav-controller/internal/log"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/bus"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/rover"
)

// MotorSink turns drive commands from the bus into motor speeds.
type MotorSink struct {
	ctrl       RawControl
	multiplier float64
}

func NewMotorSink(ctrl RawControl) *MotorSink {
	return &MotorSink{ctrl: ctrl, multiplier: MaxMotorSpeed}
}

// WithSpeedLimit caps full scale at the given fraction of MaxMotorSpeed.
func (s *MotorSink) WithSpeedLimit(fraction float64) *MotorSink {
	if fraction > 0 && fraction <= 1 {
		s.multiplier = MaxMotorSpeed * fraction
	}
	return s
}

// Run applies every AutonDriveControl received on msgs until ctx is done or
// msgs is closed, then stops the motors.
func (s *MotorSink) Run(ctx context.Context, msgs <-chan bus.Message) {
	defer func() {
		if err := s.ctrl.SetMotorSpeeds(0, 0); err != nil {
			log.Error("Failed to stop motors", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			cmd, ok := msg.Payload.(rover.AutonDriveControl)
			if !ok {
				log.Warn("Ignoring unexpected drive payload", "channel", msg.Channel)
				continue
			}
			s.apply(cmd)
		}
	}
}

func (s *MotorSink) apply(cmd rover.AutonDriveControl) {
	left := ScaleAndClamp(cmd.LeftPercentVelocity, s.multiplier)
	right := ScaleAndClamp(cmd.RightPercentVelocity, s.multiplier)
	if err := s.ctrl.SetMotorSpeeds(left, right); err != nil {
		log.Error("Failed to set motor speeds", "left", left, "right", right, "error", err)
	}
}
