// Package serialdrive drives a UART motor controller that takes one
// "L<left> R<right>" line per command.
package serialdrive

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const DefaultBaudRate = 115200

type Driver struct {
	lock sync.Mutex
	w    io.Writer
}

func New(w io.Writer) *Driver {
	return &Driver{w: w}
}

// Open opens the controller on a serial port at 8N1.
func Open(path string, baud int) (*Driver, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return New(port), nil
}

func (d *Driver) SetMotorSpeeds(left, right int8) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, err := fmt.Fprintf(d.w, "L%d R%d\n", left, right); err != nil {
		return errors.Wrap(err, "writing motor command")
	}
	return nil
}

// Close stops the motors and closes the port if it can be closed.
func (d *Driver) Close() error {
	stopErr := d.SetMotorSpeeds(0, 0)
	d.lock.Lock()
	defer d.lock.Unlock()
	if c, ok := d.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return stopErr
}
