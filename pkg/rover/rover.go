package rover

import (
	"math"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/nav-controller/internal/log"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/angle"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/geo"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/navconfig"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/pid"
)

// Publisher delivers a message on a named channel.
type Publisher interface {
	Publish(channel string, msg interface{}) error
}

// Rover turns headings and distances into wheel commands and keeps the
// stabilised view of what the rover can see. It is not safe for concurrent
// use.
type Rover struct {
	cfg    navconfig.Config
	pub    Publisher
	status *RoverStatus

	bearingPID         *pid.Loop
	longMeterInMinutes float64
}

func New(cfg *navconfig.Config, pub Publisher) (*Rover, error) {
	if cfg == nil {
		return nil, errors.New("no configuration")
	}
	if pub == nil {
		return nil, errors.New("no publisher")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	g := cfg.BearingPID
	return &Rover{
		cfg:                *cfg,
		pub:                pub,
		status:             NewRoverStatus(),
		bearingPID:         pid.New(g.KP, g.KI, g.KD),
		longMeterInMinutes: -1,
	}, nil
}

// Drive steers towards bearing while there is more than the arrival
// distance left to go. It publishes a command only when the result is
// OnCourse.
func (r *Rover) Drive(distance, bearing float64, isTarget bool) DriveStatus {
	th := r.cfg.NavThresholds
	arrival := th.WaypointDistance
	if isTarget {
		arrival = th.TargetDistance
	}
	if distance < arrival {
		return Arrived
	}

	heading := r.status.odometry.BearingDeg
	dest := angle.ThroughZero(angle.Mod360(bearing), heading)
	if math.Abs(dest-heading) < th.DrivingBearing {
		effort := r.bearingPID.Update(heading, dest)
		left := clamp(1+effort, 0, 1)
		right := clamp(1-effort, 0, 1)
		r.publishAutonDriveCmd(left, right)
		return OnCourse
	}

	log.Debug("Off course",
		"heading", heading,
		"bearing", dest,
		"deviation", angle.Signed(dest-heading))
	return OffCourse
}

// DriveTo drives towards a waypoint using the rover's current odometry.
func (r *Rover) DriveTo(destination Odometry) DriveStatus {
	odom := r.status.odometry
	distance := geo.EstimateNoneuclid(odom, destination)
	bearing := geo.CalcBearing(odom, destination)
	return r.Drive(distance, bearing, false)
}

// DriveDirection steers along bearing with no arrival or deviation check.
func (r *Rover) DriveDirection(bearing float64) {
	heading := r.status.odometry.BearingDeg
	dest := angle.ThroughZero(angle.Mod360(bearing), heading)
	effort := r.bearingPID.Update(heading, dest)
	r.publishAutonDriveCmd(clamp(1+effort, 0, 1), clamp(1-effort, 0, 1))
}

// Turn rotates in place towards bearing and reports whether the rover is
// already facing it. No command is sent once aligned.
func (r *Rover) Turn(bearing float64) bool {
	th := r.cfg.NavThresholds
	heading := r.status.odometry.BearingDeg
	dest := angle.ThroughZero(angle.Mod360(bearing), heading)

	aroundObstacle := r.status.currentState.IsTurningAroundObstacle()
	tolerance := th.TurningBearing
	if aroundObstacle {
		tolerance = 0
	}
	if math.Abs(dest-heading) <= tolerance {
		return true
	}

	effort := r.bearingPID.Update(heading, dest)
	if aroundObstacle && math.Abs(effort) < th.MinTurningEffort {
		if effort < 0 {
			effort = -th.MinTurningEffort
		} else {
			effort = th.MinTurningEffort
		}
	}
	log.Debug("Turning",
		"heading", heading,
		"bearing", dest,
		"effort", effort)
	r.publishAutonDriveCmd(clamp(effort, -1, 1), clamp(-effort, -1, 1))
	return false
}

// TurnTo turns to face a waypoint from the rover's current odometry.
func (r *Rover) TurnTo(destination Odometry) bool {
	return r.Turn(geo.CalcBearing(r.status.odometry, destination))
}

func (r *Rover) Stop() {
	r.publishAutonDriveCmd(0, 0)
}

// UpdateRover folds a freshly received snapshot into the rover's status.
// It reports false only when autonomy was off and stays off.
func (r *Rover) UpdateRover(s Snapshot) bool {
	rs := r.status

	if !rs.autonState.IsAuton {
		if !s.AutonState.IsAuton {
			return false
		}
		rs.ReplaceStatus(FromSnapshot(s))
		r.longMeterInMinutes = geo.LongMeterInMinutes(s.Odometry.Lat())
		log.Info("Autonomy enabled",
			"waypoints", rs.course.NumWaypoints,
			"targets", rs.pathTargets)
		return true
	}

	if !s.AutonState.IsAuton {
		rs.autonState = s.AutonState
		log.Info("Autonomy disabled")
		return true
	}

	if !ObstaclesEqual(rs.obstacle, s.Obstacle) ||
		!OdometriesEqual(rs.odometry, s.Odometry) ||
		!TargetsEqual(rs.leftTarget, s.LeftTarget) ||
		!TargetsEqual(rs.rightTarget, s.RightTarget) {
		rs.obstacle = s.Obstacle
		rs.odometry = s.Odometry
		rs.leftTarget = s.LeftTarget
		rs.rightTarget = s.RightTarget
		r.updateTargetCache()
	}
	return true
}

func (r *Rover) updateTargetCache() {
	rs := r.status
	th := r.cfg.NavThresholds

	if rs.leftTarget.Distance != th.NoTargetDist {
		front, ok := rs.PathFront()
		if ok && front.ID == rs.leftTarget.ID {
			rs.leftHits++
		} else {
			rs.leftHits = 0
		}
		if rs.leftHits >= th.CacheHitMin {
			rs.leftCacheTarget = rs.leftTarget
			rs.leftMisses = 0
		}

		// The right post is only ever seen alongside the left one.
		if rs.rightTarget.Distance != th.NoTargetDist {
			rs.rightCacheTarget = rs.rightTarget
			rs.rightMisses = 0
		} else {
			rs.rightMisses++
		}
	} else {
		rs.leftMisses++
		rs.rightMisses++
		rs.leftHits = 0
		rs.rightHits = 0
	}

	if rs.leftMisses > th.CacheMissMax {
		rs.leftHits, rs.leftMisses = 0, 0
		rs.leftCacheTarget = EmptyTarget()
	}
	if rs.rightMisses > th.CacheMissMax {
		rs.rightHits, rs.rightMisses = 0, 0
		rs.rightCacheTarget = EmptyTarget()
	}
}

// LongMeterInMinutes is the longitude minutes per metre at the latitude
// seen when autonomy was last enabled, or -1 before then.
func (r *Rover) LongMeterInMinutes() float64 {
	return r.longMeterInMinutes
}

func (r *Rover) Status() *RoverStatus {
	return r.status
}

func (r *Rover) BearingPID() *pid.Loop {
	return r.bearingPID
}

func (r *Rover) Config() navconfig.Config {
	return r.cfg
}

func (r *Rover) publishAutonDriveCmd(left, right float64) {
	cmd := AutonDriveControl{
		LeftPercentVelocity:  left,
		RightPercentVelocity: right,
	}
	if err := r.pub.Publish(r.cfg.Channels.AutonDriveControl, cmd); err != nil {
		log.Warn("Failed to publish drive command", "error", err)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
