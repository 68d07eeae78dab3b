package conductor

import (
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/r3e-labs/musicalconductor/pkg/logger"
)

// config collects everything the functional Options can customize before
// New assembles the subsystems.
type config struct {
	log           *logger.Logger
	clock         Clock
	dedupWindow   time.Duration
	limiter       *rate.Limiter
	heartbeatSpec string
}

func defaultConfig() config {
	return config{
		log:         logger.NewDefault("conductor"),
		clock:       SystemClock,
		dedupWindow: time.Second,
	}
}

// Option customizes a Conductor at construction time.
type Option func(*config)

// WithLogger overrides the default logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithClock overrides the default wall clock, for deterministic tests of
// DELAYED beats and the dedup window.
func WithClock(clock Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithDedupWindow overrides how long an admitted request's hash is
// remembered for duplicate detection.
func WithDedupWindow(d time.Duration) Option {
	return func(c *config) { c.dedupWindow = d }
}

// WithAdmissionRateLimit throttles Play() admissions to rps requests per
// second with the given burst allowance. This is an ambient safety valve
// on top of the admission pipeline, not part of it: by default no limit
// is applied.
func WithAdmissionRateLimit(rps float64, burst int) Option {
	return func(c *config) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithStatsHeartbeat schedules a periodic log line summarizing current
// statistics, driven by a cron expression (e.g. "@every 30s"). An
// unparseable spec is ignored, leaving the heartbeat disabled.
func WithStatsHeartbeat(spec string) Option {
	return func(c *config) {
		if _, err := cron.ParseStandard(spec); err == nil {
			c.heartbeatSpec = spec
		}
	}
}
