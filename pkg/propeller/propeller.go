// Package propeller drives the motors through the Propeller co-processor
// on the I2C bus.
package propeller

import (
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/kr/pty"
	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"

	"github.com/tigerbot-team/tigerbot/nav-controller/internal/log"
)

const (
	PropAddr = 0x42

	RegMotor1 = 22
	RegMotor2 = 23

	DefaultDevice   = "/dev/i2c-1"
	DefaultFirmware = "/mb3.binary"
)

// Device is the part of an I2C device the Propeller needs.
type Device interface {
	Write(buf []byte) error
	Close() error
}

type Opener func() (Device, error)

// I2COpener opens the Propeller at PropAddr on the given bus device.
func I2COpener(devPath string) Opener {
	return func() (Device, error) {
		dev, err := i2c.Open(&i2c.Devfs{Dev: devPath}, PropAddr)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}

type Propeller struct {
	open     Opener
	dev      Device
	flash    func() error
	retries  int
	retryGap time.Duration
}

type Option func(*Propeller)

// WithFirmware flashes the given image with propman on start up and after
// repeated write failures.
func WithFirmware(path string) Option {
	return func(p *Propeller) {
		p.flash = func() error { return Flash(path) }
	}
}

func New(open Opener, opts ...Option) (*Propeller, error) {
	p := &Propeller{
		open:     open,
		retries:  20,
		retryGap: time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	if p.flash != nil {
		if err := p.flash(); err != nil {
			return nil, errors.Wrap(err, "flashing propeller")
		}
	}
	dev, err := open()
	if err != nil {
		return nil, errors.Wrap(err, "opening propeller")
	}
	p.dev = dev
	return p, nil
}

// Flash loads firmware with propman. propman needs a TTY or it reports
// success without booting the chip.
func Flash(firmware string) error {
	log.Info("Flashing the propeller", "firmware", firmware)
	cmd := exec.Command("propman", firmware)
	f, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer f.Close()
	go io.Copy(os.Stdout, f)
	if err := cmd.Wait(); err != nil {
		return err
	}
	log.Info("Flashed the propeller")
	// Give it time to boot.
	time.Sleep(25 * time.Millisecond)
	return nil
}

func (p *Propeller) SetMotorSpeeds(left, right int8) error {
	// Clamp for symmetry and to avoid overflow when we negate.
	if left == -128 {
		left = -127
	}
	if right == -128 {
		right = -127
	}
	// The right motor is mounted mirrored.
	data := []byte{RegMotor1, byte(left), byte(-right)}
	return p.writeWithRetries(data)
}

func (p *Propeller) writeWithRetries(data []byte) error {
	var err error
	for flashTries := 0; flashTries < 2; flashTries++ {
		for tries := 0; tries < p.retries; tries++ {
			if p.dev != nil {
				if err = p.dev.Write(data); err == nil {
					if tries > 0 || flashTries > 0 {
						log.Info("Programmed propeller after retries", "tries", tries)
					}
					return nil
				}
				log.Warn("Failed to program propeller", "error", err)
				_ = p.dev.Close()
				p.dev = nil
			}
			time.Sleep(p.retryGap)
			dev, openErr := p.open()
			if openErr != nil {
				err = openErr
				continue
			}
			p.dev = dev
		}
		if p.flash == nil {
			break
		}
		log.Error("Failed to program propeller after retries, reflashing", "error", err)
		_ = p.flash()
	}
	return errors.Wrap(err, "writing to propeller")
}

func (p *Propeller) Close() error {
	if p.dev == nil {
		return nil
	}
	err := p.dev.Close()
	p.dev = nil
	return err
}
