// Package navmode follows the course in the rover's status, one waypoint at
// a time: turn to face it, drive to it, move on.
package navmode

import (
	"context"
	"sync"
	"time"

	"github.com/tigerbot-team/tigerbot/nav-controller/internal/log"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/bus"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/geo"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/rover"
)

const DefaultTick = 100 * time.Millisecond

type NavMode struct {
	rover  *rover.Rover
	status <-chan bus.Message
	tick   time.Duration

	cancel context.CancelFunc
	stopWG sync.WaitGroup
}

// New returns a mode that feeds snapshots from status into r and steps the
// controller every tick. r must not be used elsewhere while the mode runs.
func New(r *rover.Rover, status <-chan bus.Message, tick time.Duration) *NavMode {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &NavMode{
		rover:  r,
		status: status,
		tick:   tick,
	}
}

func (m *NavMode) Name() string {
	return "Nav mode"
}

func (m *NavMode) Start(ctx context.Context) {
	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.loop(loopCtx)
}

func (m *NavMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
}

func (m *NavMode) loop(ctx context.Context) {
	defer m.stopWG.Done()
	defer m.rover.Stop()

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-m.status:
			if !ok {
				log.Warn("Status channel closed")
				return
			}
			s, ok := msg.Payload.(rover.Snapshot)
			if !ok {
				log.Warn("Ignoring unexpected status payload", "channel", msg.Channel)
				continue
			}
			m.rover.UpdateRover(s)
		case <-ticker.C:
			m.Step()
		}
	}
}

// Step runs one control tick.
func (m *NavMode) Step() {
	rs := m.rover.Status()

	if !rs.AutonState().IsAuton {
		if rs.CurrentState() != rover.Off {
			log.Info("Autonomy off, stopping")
			m.rover.Stop()
			m.setState(rover.Off)
		}
		return
	}

	front, ok := rs.PathFront()
	if !ok {
		if rs.CurrentState() != rover.Done {
			log.Info("Course complete")
			m.rover.Stop()
			m.setState(rover.Done)
		}
		return
	}

	switch rs.CurrentState() {
	case rover.Drive:
		switch m.rover.DriveTo(front.Odom) {
		case rover.Arrived:
			m.arrived(front)
		case rover.OffCourse:
			m.setState(rover.Turn)
		}
	default:
		m.setState(rover.Turn)
		if m.atWaypoint(front) {
			m.arrived(front)
			return
		}
		if m.rover.TurnTo(front.Odom) {
			m.setState(rover.Drive)
		}
	}
}

func (m *NavMode) atWaypoint(wp rover.Waypoint) bool {
	d := geo.EstimateNoneuclid(m.rover.Status().Odometry(), wp.Odom)
	return d < m.rover.Config().NavThresholds.WaypointDistance
}

func (m *NavMode) arrived(wp rover.Waypoint) {
	rs := m.rover.Status()
	rs.PopPath()
	log.Info("Reached waypoint", "id", wp.ID, "remaining", len(rs.Path()))
	m.setState(rover.Turn)
}

// setState changes the nav state, resetting the heading loop between turning
// and driving so neither inherits the other's integral.
func (m *NavMode) setState(s rover.NavState) {
	rs := m.rover.Status()
	if rs.CurrentState() == s {
		return
	}
	log.Debug("Nav state", "from", rs.CurrentState(), "to", s)
	rs.SetCurrentState(s)
	m.rover.BearingPID().Reset()
}
