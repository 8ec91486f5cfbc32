package rover

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseOf(wps ...Waypoint) Course {
	return Course{NumWaypoints: len(wps), Waypoints: wps}
}

func TestOffToOnRebuildsPath(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	s := onWithHeading(0)
	s.Course = courseOf(
		Waypoint{ID: 1},
		Waypoint{ID: 2, Search: true},
		Waypoint{ID: 3},
		Waypoint{ID: 4, Search: true},
		Waypoint{ID: 5},
	)

	require.True(t, r.UpdateRover(s))
	rs := r.Status()
	assert.True(t, rs.AutonState().IsAuton)
	assert.Equal(t, 2, rs.PathTargets())
	assert.Len(t, rs.Path(), 5)
	assert.Greater(t, r.LongMeterInMinutes(), 0.0)

	front, ok := rs.PathFront()
	require.True(t, ok)
	assert.Equal(t, 1, front.ID)
}

func TestPathCountsGatesAndHonoursNumWaypoints(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	s := onWithHeading(0)
	s.Course = Course{
		NumWaypoints: 3,
		Waypoints: []Waypoint{
			{ID: 1, Gate: true},
			{ID: 2, Search: true, Gate: true},
			{ID: 3},
			{ID: 4, Search: true},
		},
	}
	r.UpdateRover(s)
	rs := r.Status()
	assert.Equal(t, 2, rs.PathTargets())
	assert.Len(t, rs.Path(), 3)

	wp, ok := rs.PopPath()
	require.True(t, ok)
	assert.Equal(t, 1, wp.ID)
	assert.Equal(t, 1, rs.PathTargets())
	rs.PopPath()
	rs.PopPath()
	_, ok = rs.PopPath()
	assert.False(t, ok)
	assert.Equal(t, 0, rs.PathTargets())

	// Consuming the path leaves the course alone.
	assert.Equal(t, 3, rs.Course().NumWaypoints)
}

func TestPathIsCopied(t *testing.T) {
	rs := FromSnapshot(Snapshot{Course: courseOf(Waypoint{ID: 1})})
	p := rs.Path()
	p[0].ID = 99
	front, _ := rs.PathFront()
	assert.Equal(t, 1, front.ID)
}

func TestOffToOffNotUpdated(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	s := onWithHeading(45)
	s.AutonState.IsAuton = false
	assert.False(t, r.UpdateRover(s))
	assert.Equal(t, 0.0, r.Status().Odometry().BearingDeg)
	assert.Equal(t, -1.0, r.LongMeterInMinutes())
}

func TestOnToOffCopiesOnlyAutonFlag(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	r.UpdateRover(onWithHeading(10))

	s := onWithHeading(200)
	s.AutonState.IsAuton = false
	assert.True(t, r.UpdateRover(s))
	assert.False(t, r.Status().AutonState().IsAuton)
	assert.Equal(t, 10.0, r.Status().Odometry().BearingDeg)
}

func TestOnToOnReportsUpdatedWithoutChange(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	s := onWithHeading(10)
	r.UpdateRover(s)
	before := r.Status().LeftMisses()

	assert.True(t, r.UpdateRover(s))
	assert.Equal(t, before, r.Status().LeftMisses())
}

func TestOnToOnUpdatesFields(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	r.UpdateRover(onWithHeading(10))

	s := onWithHeading(20)
	s.Obstacle = Obstacle{Bearing: 30, Distance: 2, ID: 4}
	s.Course = courseOf(Waypoint{ID: 8})
	assert.True(t, r.UpdateRover(s))

	rs := r.Status()
	assert.Equal(t, 20.0, rs.Odometry().BearingDeg)
	assert.Equal(t, s.Obstacle, rs.Obstacle())
	// The course is only taken when autonomy is switched on.
	assert.Empty(t, rs.Path())
}

func TestOnToOnIgnoresSpeedAndTargetID(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	r.UpdateRover(onWithHeading(10))
	misses := r.Status().LeftMisses()

	s := onWithHeading(10)
	s.Odometry.Speed = 3
	s.LeftTarget.ID = 12
	r.UpdateRover(s)
	assert.Equal(t, misses, r.Status().LeftMisses())
	assert.Equal(t, 0.0, r.Status().Odometry().Speed)
}

// sightings feeds n snapshots carrying the given live targets, nudging the
// heading so that every one counts as a change.
func sightings(r *Rover, n int, left, right Target) {
	for i := 0; i < n; i++ {
		s := onWithHeading(r.Status().Odometry().BearingDeg + 1)
		s.LeftTarget = left
		s.RightTarget = right
		r.UpdateRover(s)
	}
}

func startOnCourse(t *testing.T, r *Rover, wps ...Waypoint) {
	t.Helper()
	s := onWithHeading(0)
	s.Course = courseOf(wps...)
	require.True(t, r.UpdateRover(s))
}

func TestLeftCachePromotion(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	startOnCourse(t, r, Waypoint{ID: 7, Search: true})
	post := Target{Distance: 4, Bearing: 15, ID: 7}

	sightings(r, 2, post, EmptyTarget())
	assert.Equal(t, 2, r.Status().LeftHits())
	assert.Equal(t, EmptyTarget(), r.Status().LeftCacheTarget())

	sightings(r, 1, post, EmptyTarget())
	rs := r.Status()
	assert.Equal(t, 3, rs.LeftHits())
	assert.Equal(t, 0, rs.LeftMisses())
	if diff := cmp.Diff(post, rs.LeftCacheTarget()); diff != "" {
		t.Errorf("left cache mismatch (-want +got):\n%s", diff)
	}
}

func TestLeftCacheMismatchResetsHits(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	startOnCourse(t, r, Waypoint{ID: 7, Search: true})
	post := Target{Distance: 4, Bearing: 15, ID: 7}
	other := Target{Distance: 6, Bearing: 20, ID: 3}

	sightings(r, 2, post, EmptyTarget())
	sightings(r, 1, other, EmptyTarget())
	assert.Equal(t, 0, r.Status().LeftHits())
	sightings(r, 2, post, EmptyTarget())
	assert.Equal(t, EmptyTarget(), r.Status().LeftCacheTarget())
	sightings(r, 1, post, EmptyTarget())
	assert.Equal(t, post, r.Status().LeftCacheTarget())
}

func TestLeftDetectionWithEmptyPath(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	startOnCourse(t, r)
	sightings(r, 5, Target{Distance: 4, Bearing: 15, ID: 0}, EmptyTarget())
	assert.Equal(t, 0, r.Status().LeftHits())
	assert.Equal(t, EmptyTarget(), r.Status().LeftCacheTarget())
}

func TestLeftCacheEviction(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	startOnCourse(t, r, Waypoint{ID: 7, Search: true})
	post := Target{Distance: 4, Bearing: 15, ID: 7}
	sightings(r, 3, post, EmptyTarget())
	require.Equal(t, post, r.Status().LeftCacheTarget())

	// Five misses is not more than the maximum.
	sightings(r, 5, EmptyTarget(), EmptyTarget())
	assert.Equal(t, post, r.Status().LeftCacheTarget())
	assert.Equal(t, 5, r.Status().LeftMisses())
	assert.Equal(t, 0, r.Status().LeftHits())

	sightings(r, 1, EmptyTarget(), EmptyTarget())
	rs := r.Status()
	assert.Equal(t, Target{Distance: -1}, rs.LeftCacheTarget())
	assert.Equal(t, 0, rs.LeftMisses())
	assert.Equal(t, 0, rs.LeftHits())
}

func TestRightCacheFollowsLeftVisibility(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	startOnCourse(t, r, Waypoint{ID: 7, Gate: true})
	left := Target{Distance: 4, Bearing: 15, ID: 7}
	right := Target{Distance: 5, Bearing: 25, ID: 8}

	// A single right sighting alongside the left is cached straight away.
	sightings(r, 1, left, right)
	assert.Equal(t, right, r.Status().RightCacheTarget())
	assert.Equal(t, EmptyTarget(), r.Status().LeftCacheTarget())

	// Right alone is never cached and counts as a miss.
	sightings(r, 1, EmptyTarget(), Target{Distance: 9, Bearing: 1, ID: 8})
	assert.Equal(t, right, r.Status().RightCacheTarget())
	assert.Equal(t, 1, r.Status().RightMisses())

	// Left visible without right is also a right miss.
	sightings(r, 5, left, EmptyTarget())
	assert.Equal(t, EmptyTarget(), r.Status().RightCacheTarget())
	assert.Equal(t, 0, r.Status().RightMisses())
	assert.Equal(t, left, r.Status().LeftCacheTarget())
}

func TestReplaceStatusKeepsNavStateAndHits(t *testing.T) {
	src := FromSnapshot(Snapshot{
		AutonState: AutonState{IsAuton: true},
		Course:     courseOf(Waypoint{ID: 1, Search: true}, Waypoint{ID: 2}),
		Odometry:   Odometry{LatitudeDeg: 1, BearingDeg: 45},
	})
	src.SetCurrentState(SearchSpin)
	src.leftHits, src.rightHits = 2, 1
	src.leftMisses, src.rightMisses = 3, 4

	dst := NewRoverStatus()
	dst.SetCurrentState(GateDrive)
	dst.leftHits = 7
	dst.ReplaceStatus(src)

	assert.Equal(t, GateDrive, dst.CurrentState())
	assert.Equal(t, 7, dst.LeftHits())
	assert.Equal(t, 0, dst.RightHits())
	assert.Equal(t, 3, dst.LeftMisses())
	assert.Equal(t, 4, dst.RightMisses())
	assert.Equal(t, 1, dst.PathTargets())
	assert.Equal(t, 45.0, dst.Odometry().BearingDeg)
	if diff := cmp.Diff(src.Path(), dst.Path()); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	// Consuming one path leaves the other alone.
	dst.PopPath()
	assert.Len(t, src.Path(), 2)
}

func TestOffToOnLeavesNavState(t *testing.T) {
	r, _ := newTestRover(t, testConfig())
	r.Status().SetCurrentState(Done)
	require.True(t, r.UpdateRover(onWithHeading(0)))
	assert.Equal(t, Done, r.Status().CurrentState())
}

func TestEquality(t *testing.T) {
	assert.True(t, TargetsEqual(Target{1, 2, 3}, Target{1, 2, 4}))
	assert.False(t, TargetsEqual(Target{1, 2, 3}, Target{1, 2.5, 3}))
	assert.True(t, ObstaclesEqual(Obstacle{1, 2, 3}, Obstacle{1, 2, 9}))
	assert.False(t, ObstaclesEqual(Obstacle{1, 2, 3}, Obstacle{1, 3, 3}))

	o := Odometry{LatitudeDeg: 1, LatitudeMin: 2, LongitudeDeg: 3, LongitudeMin: 4, BearingDeg: 5, Speed: 6}
	p := o
	p.Speed = 0
	assert.True(t, OdometriesEqual(o, p))
	p.LongitudeMin = 4.5
	assert.False(t, OdometriesEqual(o, p))
}

func TestNavStateStrings(t *testing.T) {
	assert.Equal(t, "SearchTurnAroundObs", SearchTurnAroundObs.String())
	assert.Equal(t, "NavState(42)", NavState(42).String())
	assert.Equal(t, "OffCourse", OffCourse.String())
	assert.True(t, TurnAroundObs.IsTurningAroundObstacle())
	assert.False(t, DriveAroundObs.IsTurningAroundObstacle())
}
