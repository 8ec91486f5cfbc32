package rover

// RoverStatus is everything the controller knows about the rover. It is
// owned by a single Rover and changed only through its methods.
type RoverStatus struct {
	currentState NavState
	autonState   AutonState
	course       Course
	path         []Waypoint
	pathTargets  int

	obstacle Obstacle
	odometry Odometry

	leftTarget       Target
	rightTarget      Target
	leftCacheTarget  Target
	rightCacheTarget Target

	leftHits, leftMisses   int
	rightHits, rightMisses int
}

// NewRoverStatus returns a status with navigation off and every target and
// obstacle slot empty.
func NewRoverStatus() *RoverStatus {
	return &RoverStatus{
		currentState:     Off,
		obstacle:         EmptyObstacle(),
		leftTarget:       EmptyTarget(),
		rightTarget:      EmptyTarget(),
		leftCacheTarget:  EmptyTarget(),
		rightCacheTarget: EmptyTarget(),
	}
}

// FromSnapshot builds a fresh status carrying the snapshot's fields. Caches
// and counters start empty; the path is built from the course.
func FromSnapshot(s Snapshot) *RoverStatus {
	rs := NewRoverStatus()
	rs.autonState = s.AutonState
	rs.setCourse(s.Course)
	rs.obstacle = s.Obstacle
	rs.odometry = s.Odometry
	rs.leftTarget = s.LeftTarget
	rs.rightTarget = s.RightTarget
	return rs
}

// ReplaceStatus adopts next's sensed fields, caches and miss counts. The
// path is rebuilt from next's course and the path target count recomputed.
// The nav state and hit counts belong to the caller and are left alone.
func (rs *RoverStatus) ReplaceStatus(next *RoverStatus) {
	rs.autonState = next.autonState
	rs.setCourse(next.course)
	rs.obstacle = next.obstacle
	rs.odometry = next.odometry
	rs.leftTarget = next.leftTarget
	rs.rightTarget = next.rightTarget
	rs.leftCacheTarget = next.leftCacheTarget
	rs.rightCacheTarget = next.rightCacheTarget
	rs.leftMisses = next.leftMisses
	rs.rightMisses = next.rightMisses
}

func (rs *RoverStatus) setCourse(c Course) {
	n := c.NumWaypoints
	if n > len(c.Waypoints) || n < 0 {
		n = len(c.Waypoints)
	}
	rs.course = Course{
		NumWaypoints: n,
		Waypoints:    append([]Waypoint(nil), c.Waypoints[:n]...),
	}

	rs.path = make([]Waypoint, 0, n)
	rs.pathTargets = 0
	for _, wp := range rs.course.Waypoints {
		rs.path = append(rs.path, wp)
		if wp.Search || wp.Gate {
			rs.pathTargets++
		}
	}
}

func (rs *RoverStatus) CurrentState() NavState {
	return rs.currentState
}

func (rs *RoverStatus) SetCurrentState(s NavState) {
	rs.currentState = s
}

func (rs *RoverStatus) AutonState() AutonState {
	return rs.autonState
}

func (rs *RoverStatus) Course() Course {
	return rs.course
}

// Path returns a copy of the remaining waypoints.
func (rs *RoverStatus) Path() []Waypoint {
	return append([]Waypoint(nil), rs.path...)
}

func (rs *RoverStatus) PathFront() (Waypoint, bool) {
	if len(rs.path) == 0 {
		return Waypoint{}, false
	}
	return rs.path[0], true
}

// PopPath removes the front waypoint, keeping the target count in step.
func (rs *RoverStatus) PopPath() (Waypoint, bool) {
	wp, ok := rs.PathFront()
	if !ok {
		return wp, false
	}
	rs.path = rs.path[1:]
	if wp.Search || wp.Gate {
		rs.pathTargets--
	}
	return wp, true
}

// PathTargets is the number of waypoints left in the path that are flagged
// search or gate.
func (rs *RoverStatus) PathTargets() int {
	return rs.pathTargets
}

func (rs *RoverStatus) Obstacle() Obstacle {
	return rs.obstacle
}

func (rs *RoverStatus) Odometry() Odometry {
	return rs.odometry
}

func (rs *RoverStatus) LeftTarget() Target {
	return rs.leftTarget
}

func (rs *RoverStatus) RightTarget() Target {
	return rs.rightTarget
}

func (rs *RoverStatus) LeftCacheTarget() Target {
	return rs.leftCacheTarget
}

func (rs *RoverStatus) RightCacheTarget() Target {
	return rs.rightCacheTarget
}

func (rs *RoverStatus) LeftHits() int    { return rs.leftHits }
func (rs *RoverStatus) LeftMisses() int  { return rs.leftMisses }
func (rs *RoverStatus) RightHits() int   { return rs.rightHits }
func (rs *RoverStatus) RightMisses() int { return rs.rightMisses }
