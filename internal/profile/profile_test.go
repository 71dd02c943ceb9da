package profile

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestCheckBeforeStart(t *testing.T) {
	p := New()
	err := p.Check("too.early")
	require.ErrorIs(t, err, ErrNotStarted)
	require.Empty(t, p.CheckPoints())
}

func TestCheckPointsNonDecreasing(t *testing.T) {
	p := New()
	p.Start()
	for _, label := range []string{"a", "b", "a", "c"} {
		require.NoError(t, p.Check(label))
	}

	cps := p.CheckPoints()
	require.Len(t, cps, 4)
	require.Equal(t, "a", cps[2].Label)
	for i := 1; i < len(cps); i++ {
		require.GreaterOrEqual(t, cps[i].Elapsed, cps[i-1].Elapsed)
	}
}

func TestCheckClampsBackwardClock(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(10 * time.Millisecond), base.Add(5 * time.Millisecond)}
	i := 0
	p := New()
	p.now = func() time.Time {
		t := times[i]
		i++
		return t
	}
	p.Start()
	require.NoError(t, p.Check("first"))
	require.NoError(t, p.Check("second"))

	cps := p.CheckPoints()
	require.Equal(t, 10*time.Millisecond, cps[1].Elapsed)
}

func TestAnalysisPairs(t *testing.T) {
	p := New()
	p.now = steppingClock(time.Millisecond)
	p.Start()

	require.NoError(t, p.BeforeAnalysis("markdown"))
	require.NoError(t, p.AfterAnalysis("markdown"))
	require.NoError(t, p.BeforeAnalysis("custom"))
	require.NoError(t, p.AfterAnalysis("custom"))

	analyses := p.Analyses()
	require.Len(t, analyses, 2)
	require.Equal(t, "markdown", analyses[0].Analyzer)
	require.Equal(t, "custom", analyses[1].Analyzer)
	require.Equal(t, time.Millisecond, analyses[0].Duration)

	var labels []string
	for _, cp := range p.CheckPoints() {
		labels = append(labels, cp.Label)
	}
	require.Equal(t, []string{
		"analysis.markdown.start", "analysis.markdown.end",
		"analysis.custom.start", "analysis.custom.end",
	}, labels)
}

func TestAnalysisOverlapRejected(t *testing.T) {
	p := New()
	p.Start()
	require.NoError(t, p.BeforeAnalysis("a"))
	require.ErrorIs(t, p.BeforeAnalysis("b"), ErrAnalysisOverlap)
	require.ErrorIs(t, p.AfterAnalysis("b"), ErrAnalysisMismatch)
	require.NoError(t, p.AfterAnalysis("a"))
	require.ErrorIs(t, p.AfterAnalysis("a"), ErrAnalysisMismatch)
}

func TestStopFreezesDuration(t *testing.T) {
	p := New()
	p.now = steppingClock(time.Second)
	require.Zero(t, p.Duration())
	p.Start()
	p.Stop()
	d := p.Duration()
	require.Equal(t, time.Second, d)
	require.Equal(t, d, p.Duration())
}

func TestIndentedJSONPreservesOrder(t *testing.T) {
	p := New()
	p.now = steppingClock(2 * time.Millisecond)
	p.Start()
	require.NoError(t, p.Check("z.first"))
	require.NoError(t, p.Check("a.second"))

	out, err := p.IndentedJSON()
	require.NoError(t, err)
	s := string(out)
	require.Less(t, strings.Index(s, "z.first"), strings.Index(s, "a.second"))
	require.Contains(t, s, "\n    \"z.first\": 2")

	var parsed map[string]float64
	require.NoError(t, json.Unmarshal(out, &parsed))
	require.Equal(t, 4.0, parsed["a.second"])
}
