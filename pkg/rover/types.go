package rover

import "fmt"

// NoTargetDistance is the distance carried by an empty target or obstacle
// slot.
const NoTargetDistance = -1.0

type Odometry struct {
	LatitudeDeg  int     `json:"latitude_deg"`
	LatitudeMin  float64 `json:"latitude_min"`
	LongitudeDeg int     `json:"longitude_deg"`
	LongitudeMin float64 `json:"longitude_min"`
	BearingDeg   float64 `json:"bearing_deg"`
	Speed        float64 `json:"speed"`
}

func (o Odometry) Lat() (deg, min float64) {
	return float64(o.LatitudeDeg), o.LatitudeMin
}

func (o Odometry) Lon() (deg, min float64) {
	return float64(o.LongitudeDeg), o.LongitudeMin
}

type Target struct {
	Distance float64 `json:"distance"`
	Bearing  float64 `json:"bearing"`
	ID       int     `json:"id"`
}

func EmptyTarget() Target {
	return Target{Distance: NoTargetDistance}
}

type Obstacle struct {
	Bearing  float64 `json:"bearing"`
	Distance float64 `json:"distance"`
	ID       int     `json:"id"`
}

func EmptyObstacle() Obstacle {
	return Obstacle{Distance: NoTargetDistance}
}

type Waypoint struct {
	Odom      Odometry `json:"odom"`
	Search    bool     `json:"search"`
	Gate      bool     `json:"gate"`
	GateWidth float64  `json:"gate_width"`
	ID        int      `json:"id"`
}

type Course struct {
	NumWaypoints int        `json:"num_waypoints"`
	Waypoints    []Waypoint `json:"waypoints"`
}

type AutonState struct {
	IsAuton bool `json:"is_auton"`
}

// AutonDriveControl is the wheel command published on the drive channel.
// Both velocities are in [-1, 1].
type AutonDriveControl struct {
	LeftPercentVelocity  float64 `json:"left_percent_velocity"`
	RightPercentVelocity float64 `json:"right_percent_velocity"`
}

// Snapshot is one freshly sensed status message, as delivered to
// UpdateRover.
type Snapshot struct {
	AutonState  AutonState `json:"auton_state"`
	Course      Course     `json:"course"`
	Obstacle    Obstacle   `json:"obstacle"`
	Odometry    Odometry   `json:"odometry"`
	LeftTarget  Target     `json:"left_target"`
	RightTarget Target     `json:"right_target"`
}

// NavState is owned by the navigation state machine; the controller only
// reads it.
type NavState int

const (
	Off NavState = iota
	Done
	Turn
	Drive
	SearchFaceNorth
	SearchSpin
	SearchSpinWait
	SearchTurn
	SearchDrive
	TurnToTarget
	TurnedToTargetWait
	DriveToTarget
	TurnAroundObs
	DriveAroundObs
	SearchTurnAroundObs
	SearchDriveAroundObs
	GateSpin
	GateTurn
	GateDrive
	Unknown
)

var navStateNames = [...]string{
	Off:                  "Off",
	Done:                 "Done",
	Turn:                 "Turn",
	Drive:                "Drive",
	SearchFaceNorth:      "SearchFaceNorth",
	SearchSpin:           "SearchSpin",
	SearchSpinWait:       "SearchSpinWait",
	SearchTurn:           "SearchTurn",
	SearchDrive:          "SearchDrive",
	TurnToTarget:         "TurnToTarget",
	TurnedToTargetWait:   "TurnedToTargetWait",
	DriveToTarget:        "DriveToTarget",
	TurnAroundObs:        "TurnAroundObs",
	DriveAroundObs:       "DriveAroundObs",
	SearchTurnAroundObs:  "SearchTurnAroundObs",
	SearchDriveAroundObs: "SearchDriveAroundObs",
	GateSpin:             "GateSpin",
	GateTurn:             "GateTurn",
	GateDrive:            "GateDrive",
	Unknown:              "Unknown",
}

func (s NavState) String() string {
	if s >= 0 && int(s) < len(navStateNames) {
		return navStateNames[s]
	}
	return fmt.Sprintf("NavState(%d)", int(s))
}

func (s NavState) IsTurningAroundObstacle() bool {
	return s == TurnAroundObs || s == SearchTurnAroundObs
}

type DriveStatus int

const (
	Arrived DriveStatus = iota
	OnCourse
	OffCourse
)

func (d DriveStatus) String() string {
	switch d {
	case Arrived:
		return "Arrived"
	case OnCourse:
		return "OnCourse"
	case OffCourse:
		return "OffCourse"
	default:
		return fmt.Sprintf("DriveStatus(%d)", int(d))
	}
}
