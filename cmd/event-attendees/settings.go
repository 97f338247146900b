package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"

	"github.com/qlibin/event-attendees/config"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine"
	"github.com/qlibin/event-attendees/striping"
	"github.com/qlibin/event-attendees/workload"
)

const (
	stripeHashModulo  = "modulo"
	stripeHashMurmur3 = "murmur3"
	logTimeFormat     = "15:04:05.000"
)

var ErrInvalidSettings = errors.New("invalid settings")

// storeSettings are shared by the root command and the bootstrap subcommand.
type storeSettings struct {
	Driver   config.Driver
	DSN      string
	LogLevel slog.Level
	Clean    bool
}

type settings struct {
	storeSettings

	Workload            workload.Config
	AttendeeStorage     sqlengine.AttendeeStorage
	TransactionalWrites bool
	ExistsCacheSize     int
	ExistsCacheTTL      time.Duration
	StripeHash          striping.HashFunc
	Seed                uint64
	RunFor              time.Duration
	MetricsListen       string
	SummaryJSON         bool
}

func loadStoreSettings(v *viper.Viper) (storeSettings, error) {
	if err := loadConfigFile(v); err != nil {
		return storeSettings{}, err
	}

	driver, err := config.ParseDriver(strings.TrimSpace(v.GetString(flagDBDriver)))
	if err != nil {
		return storeSettings{}, errors.Join(ErrInvalidSettings, err)
	}

	level, err := parseLogLevel(v.GetString(flagLogLevel))
	if err != nil {
		return storeSettings{}, err
	}

	return storeSettings{
		Driver:   driver,
		DSN:      strings.TrimSpace(v.GetString(flagDSN)),
		LogLevel: level,
		Clean:    v.GetBool(flagClean),
	}, nil
}

func loadSettings(v *viper.Viper) (settings, error) {
	store, err := loadStoreSettings(v)
	if err != nil {
		return settings{}, err
	}

	s := settings{
		storeSettings: store,
		Workload: workload.Config{
			WriterCount:        v.GetInt(flagWriters),
			ReaderCount:        v.GetInt(flagReaders),
			MaxEventCount:      v.GetInt64(flagMaxEvents),
			MaxTime:            v.GetInt64(flagMaxTime),
			MaxAttendeeID:      v.GetInt64(flagMaxAttendeeID),
			MaxEventAttendees:  v.GetInt64(flagMaxEventAttendees),
			ReportInterval:     v.GetDuration(flagLogRateEvery),
			StartAutomatically: v.GetBool(flagStartProcessor),
		},
		AttendeeStorage:     sqlengine.AttendeeStorage(strings.TrimSpace(v.GetString(flagAttendeeStorage))),
		TransactionalWrites: v.GetBool(flagTransactionalWrites),
		ExistsCacheSize:     v.GetInt(flagExistsCacheSize),
		ExistsCacheTTL:      v.GetDuration(flagExistsCacheTTL),
		Seed:                v.GetUint64(flagSeed),
		RunFor:              v.GetDuration(flagRunFor),
		MetricsListen:       strings.TrimSpace(v.GetString(flagMetricsListen)),
		SummaryJSON:         v.GetBool(flagSummaryJSON),
	}

	var problems []error

	if err := s.Workload.Validate(); err != nil {
		problems = append(problems, err)
	}

	if err := s.AttendeeStorage.Validate(); err != nil {
		problems = append(problems, err)
	}

	if s.ExistsCacheSize < 0 {
		problems = append(problems, fmt.Errorf("%s must not be negative", flagExistsCacheSize))
	}

	if s.RunFor < 0 {
		problems = append(problems, fmt.Errorf("%s must not be negative", flagRunFor))
	}

	hash, err := parseStripeHash(v.GetString(flagStripeHash))
	if err != nil {
		problems = append(problems, err)
	}
	s.StripeHash = hash

	if len(problems) > 0 {
		return settings{}, errors.Join(append([]error{ErrInvalidSettings}, problems...)...)
	}

	return s, nil
}

func loadConfigFile(v *viper.Viper) error {
	path := strings.TrimSpace(v.GetString(flagConfig))
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	return nil
}

func parseStripeHash(name string) (striping.HashFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case stripeHashModulo:
		return striping.ModuloHash, nil
	case stripeHashMurmur3:
		return striping.Murmur3Hash, nil
	default:
		return nil, fmt.Errorf("unsupported %s %q", flagStripeHash, name)
	}
}

func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, errors.Join(ErrInvalidSettings, err)
	}

	return level, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: logTimeFormat,
	}))
}
