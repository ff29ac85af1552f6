// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coro

import (
	"errors"
	"os"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Reporter is the diagnostic sink for failures nobody handled.
// Report is fire-and-forget and must not block the frame loop.
type Reporter interface {
	Report(err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err error)

// Report implements Reporter.
func (f ReporterFunc) Report(err error) { f(err) }

// NopReporter drops every report.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(error) {}

// LogReporter writes reports as zerolog error events.
//
// A failing operation retried every frame can produce a report per frame,
// so reports pass through a token-bucket limiter first. Reports over the
// limit are counted, not written; the next written report carries how many
// were dropped since the previous one.
type LogReporter struct {
	log        zerolog.Logger
	limiter    *rate.Limiter
	reported   atomix.Uint32
	suppressed atomix.Uint32
	dropped    atomix.Uint32
}

// NewLogReporter creates a reporter on log. perSecond <= 0 disables rate
// limiting; burst < 1 is treated as 1.
func NewLogReporter(log zerolog.Logger, perSecond float64, burst int) *LogReporter {
	r := &LogReporter{log: log}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return r
}

// Report implements Reporter.
func (r *LogReporter) Report(err error) {
	if r.limiter != nil && !r.limiter.Allow() {
		r.suppressed.Add(1)
		r.dropped.Add(1)
		return
	}
	r.reported.Add(1)

	e := r.log.Error().Err(err)
	var fe *FailureError
	if errors.As(err, &fe) {
		e = e.Uint32("task", fe.ID)
		if fe.Key != "" {
			e = e.Str("key", fe.Key)
		}
	}
	var pe *PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		e = e.Str("stack", string(pe.Stack))
	}
	if n := r.dropped.Swap(0); n > 0 {
		e = e.Uint32("suppressed", n)
	}
	e.Msg("unhandled operation failure")
}

// Reported returns how many reports were written.
func (r *LogReporter) Reported() uint32 { return r.reported.Load() }

// Suppressed returns how many reports the limiter dropped in total.
func (r *LogReporter) Suppressed() uint32 { return r.suppressed.Load() }

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	defaultReporterOnce sync.Once
	defaultReporter     *LogReporter
)

// DefaultReporter returns the process-wide diagnostic sink: a console
// LogReporter on stderr limited to 10 reports per second.
func DefaultReporter() *LogReporter {
	defaultReporterOnce.Do(func() {
		cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat}
		log := zerolog.New(cw).With().Timestamp().Str("component", "coro").Logger()
		defaultReporter = NewLogReporter(log, 10, 10)
	})
	return defaultReporter
}
