// Package navconfig loads the navigation tuning file. The file is YAML; the
// rover's older JSON config is valid YAML and loads unchanged.
package navconfig

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const DefaultPath = "/cfg/nav.yaml"

type PIDGains struct {
	KP float64 `yaml:"kP"`
	KI float64 `yaml:"kI"`
	KD float64 `yaml:"kD"`
}

type NavThresholds struct {
	// Arrival distances, metres.
	WaypointDistance float64 `yaml:"waypointDistance"`
	TargetDistance   float64 `yaml:"targetDistance"`

	// Degrees.
	DrivingBearing float64 `yaml:"drivingBearing"`
	TurningBearing float64 `yaml:"turningBearing"`

	MinTurningEffort float64 `yaml:"minTurningEffort"`

	// Distance reported by perception when nothing is seen.
	NoTargetDist float64 `yaml:"noTargetDist"`

	CacheMissMax int `yaml:"cacheMissMax"`
	CacheHitMin  int `yaml:"cacheHitMin"`
}

type Channels struct {
	AutonDriveControl string `yaml:"autonDriveControlChannel"`
	RoverStatus       string `yaml:"roverStatusChannel"`
}

type Config struct {
	BearingPID    PIDGains      `yaml:"bearingPid"`
	NavThresholds NavThresholds `yaml:"navThresholds"`
	Channels      Channels      `yaml:"lcmChannels"`
}

func Default() *Config {
	return &Config{
		BearingPID: PIDGains{
			KP: 0.02,
			KI: 0,
			KD: 0.005,
		},
		NavThresholds: NavThresholds{
			WaypointDistance: 2.0,
			TargetDistance:   1.0,
			DrivingBearing:   10,
			TurningBearing:   3,
			MinTurningEffort: 0.25,
			NoTargetDist:     -1,
			CacheMissMax:     5,
			CacheHitMin:      3,
		},
		Channels: Channels{
			AutonDriveControl: "/auton_drive_control",
			RoverStatus:       "/rover_status",
		},
	}
}

// Parse overlays the given YAML onto Default and validates the result.
// Keys the file does not mention keep their default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse nav config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid nav config")
	}
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read nav config %s", path)
	}
	return Parse(data)
}

// Save writes the config as YAML. The controller saves the config it
// actually started with next to the source file, so tuning runs can be
// reproduced.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal nav config")
	}
	if err := ioutil.WriteFile(path, data, 0666); err != nil {
		return errors.Wrapf(err, "failed to write nav config %s", path)
	}
	return nil
}

// InUsePath maps "/cfg/nav.yaml" to "/cfg/nav-in-use.yaml".
func InUsePath(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != os.PathSeparator; i-- {
		if path[i] == '.' {
			return path[:i] + "-in-use" + path[i:]
		}
	}
	return path + "-in-use"
}

func (c *Config) Validate() error {
	t := c.NavThresholds
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"waypointDistance", t.WaypointDistance},
		{"targetDistance", t.TargetDistance},
		{"drivingBearing", t.DrivingBearing},
		{"turningBearing", t.TurningBearing},
		{"minTurningEffort", t.MinTurningEffort},
	} {
		if f.value < 0 {
			return errors.Errorf("navThresholds.%s must not be negative, got %v", f.name, f.value)
		}
	}
	if t.DrivingBearing > 180 || t.TurningBearing > 180 {
		return errors.New("bearing thresholds must be at most 180 degrees")
	}
	if t.MinTurningEffort > 1 {
		return errors.Errorf("navThresholds.minTurningEffort must be at most 1, got %v", t.MinTurningEffort)
	}
	if t.NoTargetDist >= 0 {
		return errors.Errorf("navThresholds.noTargetDist must be negative, got %v", t.NoTargetDist)
	}
	if t.CacheMissMax < 0 {
		return errors.Errorf("navThresholds.cacheMissMax must not be negative, got %d", t.CacheMissMax)
	}
	if t.CacheHitMin < 1 {
		return errors.Errorf("navThresholds.cacheHitMin must be at least 1, got %d", t.CacheHitMin)
	}
	if c.Channels.AutonDriveControl == "" {
		return errors.New("lcmChannels.autonDriveControlChannel is required")
	}
	if c.Channels.RoverStatus == "" {
		return errors.New("lcmChannels.roverStatusChannel is required")
	}
	return nil
}
