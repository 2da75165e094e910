// Package proxycheck checks proxy lists: whether each proxy works, which
// protocol it speaks and how long a round trip through it takes.
package proxycheck

import (
	"context"
	"fmt"
	"time"

	"github.com/aredoff/proxycheck/internal/pool"
	"github.com/aredoff/proxycheck/internal/proxy"
	"github.com/aredoff/proxycheck/internal/validator"
	"github.com/rs/zerolog"
)

type (
	Outcome = proxy.Outcome
	Label   = proxy.Label
	Stats   = proxy.Stats
	Batch   = pool.Scheduler
)

// Checker tells whether proxies work, which protocol they speak and how fast
// a round trip through them is.
type Checker struct {
	config   *Config
	detector *validator.Detector
	logger   zerolog.Logger
}

func NewChecker(config *Config) *Checker {
	if config == nil {
		config = DefaultConfig()
	}
	v := validator.NewValidatorWithOptions(config.Timeout, config.OracleAddr, config.Logger)
	return newChecker(config, v)
}

func newChecker(config *Config, prober validator.Prober) *Checker {
	return &Checker{
		config:   config,
		detector: validator.NewDetector(prober, config.Logger),
		logger:   config.Logger.With().Str("component", "checker").Logger(),
	}
}

// Check checks one raw proxy string. Strings that do not parse, or whose port
// cannot be dialed, are reported as Invalid without touching the network.
func (c *Checker) Check(ctx context.Context, raw string) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("proxy", raw).Str("panic", fmt.Sprint(r)).Msg("unexpected error testing proxy")
			out = proxy.Errored(raw, time.Since(start))
		}
	}()

	p, err := proxy.Parse(raw)
	if err != nil {
		c.logger.Debug().Err(err).Msg("invalid proxy")
		return proxy.Invalid(raw)
	}
	if !p.Probeable() {
		c.logger.Debug().Str("proxy", raw).Msg("invalid proxy address")
		return proxy.Invalid(raw)
	}

	c.logger.Debug().Str("proxy", raw).Stringer("type", p.Type).Str("addr", p.String()).Msg("testing proxy")
	out = c.detector.Probe(ctx, p)
	c.logger.Debug().
		Str("proxy", raw).
		Str("type", string(out.Type)).
		Bool("working", out.Working).
		Int64("latency_ms", out.LatencyMs()).
		Msg("proxy tested")
	return out
}

// NewBatch prepares a batch over raws without starting it.
func (c *Checker) NewBatch(raws []string) *Batch {
	return pool.NewScheduler(raws, c.config.Concurrency, c.Check, c.config.Logger)
}

// Start launches a batch over raws. Progress, the outcome stream and Cancel are
// available on the returned Batch.
func (c *Checker) Start(ctx context.Context, raws []string) *Batch {
	b := c.NewBatch(raws)
	// A fresh scheduler cannot be started twice.
	_ = b.Start(ctx)
	return b
}
