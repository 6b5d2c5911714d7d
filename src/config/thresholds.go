package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Thresholds is the immutable bundle handed to the detection engine at construction.
type Thresholds struct {
	TempHigh         float64       `yaml:"t_high"`
	VoltageLow       float64       `yaml:"v_low"`
	VoltageHigh      float64       `yaml:"v_high"`
	RateOfChange     float64       `yaml:"roc_threshold"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TempHigh:         80.0,
		VoltageLow:       4.5,
		VoltageHigh:      5.5,
		RateOfChange:     15.0,
		HeartbeatTimeout: 4 * time.Second,
	}
}

func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"t_high":        t.TempHigh,
		"v_low":         t.VoltageLow,
		"v_high":        t.VoltageHigh,
		"roc_threshold": t.RateOfChange,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("thresholds.%s must be a finite number", name)
		}
	}
	if t.VoltageLow > t.VoltageHigh {
		return fmt.Errorf("thresholds.v_low (%v) must not exceed thresholds.v_high (%v)", t.VoltageLow, t.VoltageHigh)
	}
	if t.RateOfChange < 0 {
		return errors.New("thresholds.roc_threshold must not be negative")
	}
	if t.HeartbeatTimeout <= 0 {
		return errors.New("thresholds.heartbeat_timeout must be greater than 0")
	}
	return nil
}
