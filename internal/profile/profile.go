// Package profile records timestamped checkpoints and per-analyzer timings
// for a single scrutinizer run.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNotStarted is returned when a checkpoint is recorded before Start.
	ErrNotStarted = errors.New("profile not started")
	// ErrAnalysisOverlap is returned when BeforeAnalysis is called while
	// another analyzer is still being timed.
	ErrAnalysisOverlap = errors.New("analysis already in progress")
	// ErrAnalysisMismatch is returned when AfterAnalysis does not match the
	// analyzer passed to the preceding BeforeAnalysis.
	ErrAnalysisMismatch = errors.New("analysis end does not match start")
)

// CheckPoint is a labelled elapsed time since the profile started.
type CheckPoint struct {
	Label   string
	Elapsed time.Duration
}

// ElapsedMillis returns the elapsed time in fractional milliseconds.
func (c CheckPoint) ElapsedMillis() float64 {
	return float64(c.Elapsed) / float64(time.Millisecond)
}

// Analysis is the recorded duration of one analyzer invocation.
type Analysis struct {
	Analyzer string
	Start    time.Duration
	Duration time.Duration
}

type timing struct {
	analyzer string
	start    time.Time
}

// Profile is a run's timing record.
type Profile struct {
	mu          sync.Mutex
	now         func() time.Time
	started     time.Time
	stopped     time.Time
	checkpoints []CheckPoint
	stack       []timing
	analyses    []Analysis
}

// New creates a profile that is not yet started.
func New() *Profile {
	return &Profile{now: time.Now}
}

// Start establishes the clock baseline. Calling it again resets the profile.
func (p *Profile) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = p.now()
	p.stopped = time.Time{}
	p.checkpoints = nil
	p.stack = nil
	p.analyses = nil
}

// Started reports whether Start has been called.
func (p *Profile) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.started.IsZero()
}

// Stop closes the profile. Further checkpoints are still accepted but the
// total duration is frozen.
func (p *Profile) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped.IsZero() {
		p.stopped = p.now()
	}
}

// Duration returns the time between Start and Stop, or until now while the
// profile is running.
func (p *Profile) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started.IsZero() {
		return 0
	}
	if p.stopped.IsZero() {
		return p.now().Sub(p.started)
	}
	return p.stopped.Sub(p.started)
}

// Check records a checkpoint. Labels need not be unique.
func (p *Profile) Check(label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkLocked(label, p.now())
}

func (p *Profile) checkLocked(label string, at time.Time) error {
	if p.started.IsZero() {
		return fmt.Errorf("checkpoint %q: %w", label, ErrNotStarted)
	}
	elapsed := at.Sub(p.started)
	// Clock adjustments must not make checkpoints go backwards.
	if n := len(p.checkpoints); n > 0 && elapsed < p.checkpoints[n-1].Elapsed {
		elapsed = p.checkpoints[n-1].Elapsed
	}
	p.checkpoints = append(p.checkpoints, CheckPoint{Label: label, Elapsed: elapsed})
	return nil
}

// BeforeAnalysis starts timing the named analyzer.
func (p *Profile) BeforeAnalysis(analyzer string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stack) > 0 {
		return fmt.Errorf("starting %q while %q runs: %w", analyzer, p.stack[len(p.stack)-1].analyzer, ErrAnalysisOverlap)
	}
	at := p.now()
	if err := p.checkLocked("analysis."+analyzer+".start", at); err != nil {
		return err
	}
	p.stack = append(p.stack, timing{analyzer: analyzer, start: at})
	return nil
}

// AfterAnalysis stops timing the named analyzer and records the interval.
func (p *Profile) AfterAnalysis(analyzer string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.stack) == 0 {
		return fmt.Errorf("ending %q with no analysis running: %w", analyzer, ErrAnalysisMismatch)
	}
	top := p.stack[len(p.stack)-1]
	if top.analyzer != analyzer {
		return fmt.Errorf("ending %q while %q runs: %w", analyzer, top.analyzer, ErrAnalysisMismatch)
	}
	p.stack = p.stack[:len(p.stack)-1]

	at := p.now()
	if err := p.checkLocked("analysis."+analyzer+".end", at); err != nil {
		return err
	}
	p.analyses = append(p.analyses, Analysis{
		Analyzer: analyzer,
		Start:    top.start.Sub(p.started),
		Duration: at.Sub(top.start),
	})
	return nil
}

// CheckPoints returns a copy of the recorded checkpoints in order.
func (p *Profile) CheckPoints() []CheckPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CheckPoint, len(p.checkpoints))
	copy(out, p.checkpoints)
	return out
}

// Analyses returns a copy of the recorded analyzer intervals in order.
func (p *Profile) Analyses() []Analysis {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Analysis, len(p.analyses))
	copy(out, p.analyses)
	return out
}

// MarshalJSON encodes the checkpoints as an object mapping label to elapsed
// milliseconds, preserving checkpoint order.
func (p *Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cp := range p.CheckPoints() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cp.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(cp.ElapsedMillis())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IndentedJSON returns the pretty-printed checkpoint document.
func (p *Profile) IndentedJSON() ([]byte, error) {
	raw, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
