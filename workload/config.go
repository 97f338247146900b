package workload

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfiguration is joined into every error returned by Config.Validate.
var ErrInvalidConfiguration = errors.New("invalid workload configuration")

// Config controls the size and shape of the workload.
type Config struct {
	WriterCount       int
	ReaderCount       int
	MaxEventCount     int64
	MaxTime           int64
	MaxAttendeeID     int64
	MaxEventAttendees int64
	ReportInterval    time.Duration

	// StartAutomatically releases the start barrier as soon as all tasks are ready.
	// Without it the tasks wait for Harness.Start.
	StartAutomatically bool
}

// DefaultConfig returns the defaults of the command line.
func DefaultConfig() Config {
	return Config{
		WriterCount:        8,
		ReaderCount:        8,
		MaxEventCount:      1000,
		MaxTime:            100_000,
		MaxAttendeeID:      100,
		MaxEventAttendees:  5,
		ReportInterval:     5 * time.Second,
		StartAutomatically: true,
	}
}

// Validate reports every violated constraint, joined with ErrInvalidConfiguration.
func (c Config) Validate() error {
	var problems []error

	if c.WriterCount < 0 {
		problems = append(problems, fmt.Errorf("writer count must not be negative, got %d", c.WriterCount))
	}

	if c.ReaderCount < 0 {
		problems = append(problems, fmt.Errorf("reader count must not be negative, got %d", c.ReaderCount))
	}

	if c.WriterCount == 0 && c.ReaderCount == 0 {
		problems = append(problems, errors.New("at least one writer or reader is required"))
	}

	if c.MaxEventCount < 1 {
		problems = append(problems, fmt.Errorf("max event count must be at least 1, got %d", c.MaxEventCount))
	}

	if c.MaxTime <= 1 {
		problems = append(problems, fmt.Errorf("max time must be greater than 1, got %d", c.MaxTime))
	}

	if c.MaxAttendeeID < 1 {
		problems = append(problems, fmt.Errorf("max attendee id must be at least 1, got %d", c.MaxAttendeeID))
	}

	if c.MaxEventAttendees < 0 {
		problems = append(problems, fmt.Errorf("max event attendees must not be negative, got %d", c.MaxEventAttendees))
	}

	if c.ReportInterval <= 0 {
		problems = append(problems, fmt.Errorf("report interval must be positive, got %s", c.ReportInterval))
	}

	if len(problems) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfiguration}, problems...)...)
}

// StripeCount is the number of lock stripes the writers share.
func (c Config) StripeCount() int {
	return max(2*c.WriterCount, 1)
}
