package hardware

import (
	"sync"

	"github.com/tigerbot-team/tigerbot/nav-controller/internal/log"
)

// Dummy stands in for motor hardware; it logs and remembers the last speeds.
type Dummy struct {
	lock        sync.Mutex
	left, right int8
	calls       int
}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) SetMotorSpeeds(left, right int8) error {
	d.lock.Lock()
	d.left, d.right = left, right
	d.calls++
	d.lock.Unlock()
	log.Debug("DHW: SetMotorSpeeds", "left", left, "right", right)
	return nil
}

func (d *Dummy) MotorSpeeds() (left, right int8) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.left, d.right
}

func (d *Dummy) Calls() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.calls
}

var _ RawControl = (*Dummy)(nil)
