package gridcalc

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// Options holds configuration for the Calculator.
type Options struct {
	mode              Mode
	maxPasses         int
	engine            Engine
	precision         int
	maxCalcIterations uint
	logger            *slog.Logger
	now               func() time.Time
	random            func() float64
	registry          *Registry
}

func defaultOptions() *Options {
	return &Options{
		mode:      ModeGraph,
		maxPasses: 10,
		precision: 15,
		now:       time.Now,
		random:    rand.Float64,
	}
}

// Option configures the Calculator.
type Option func(*Options)

// WithMode selects the recalculation strategy (default: ModeGraph).
func WithMode(m Mode) Option {
	return func(o *Options) { o.mode = m }
}

// WithMaxPasses sets the pass budget of ModeFixedPoint (default: 10).
func WithMaxPasses(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxPasses = n
		}
	}
}

// WithEngine sets the external engine used by ModeDelegated (default: an ExcelizeEngine).
func WithEngine(e Engine) Option {
	return func(o *Options) { o.engine = e }
}

// WithPrecision sets the significant digits kept from engine results (default: 15).
func WithPrecision(digits int) Option {
	return func(o *Options) {
		if digits > 0 {
			o.precision = digits
		}
	}
}

// WithMaxCalcIterations sets the engine's iteration limit for circular references.
func WithMaxCalcIterations(n uint) Option {
	return func(o *Options) { o.maxCalcIterations = n }
}

// WithLogger sets the structured logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithClock sets the time source read by TODAY and NOW.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRandom sets the source of RAND and RANDBETWEEN. It must return values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(o *Options) {
		if random != nil {
			o.random = random
		}
	}
}

// WithRegistry replaces the built-in function registry.
func WithRegistry(r *Registry) Option {
	return func(o *Options) { o.registry = r }
}
