package config

import (
	"errors"
)

// Sentinel error kinds for this package. Load and Validate wrap them so
// callers can use errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrConfigFile marks a SALARY_CONFIG file that could not be read or parsed.
	ErrConfigFile = errors.New("config file unreadable")
)
