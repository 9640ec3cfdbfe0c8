// Package screening scans transcripts for text that tries to steer the
// summarizing model. Matches are reported, never blocked: the transcript is
// third-party content and the summary is still produced.
package screening

import (
	"log/slog"

	"github.com/af-corp/thoth/internal/config"
	"github.com/af-corp/thoth/internal/telemetry"
)

// Detection records a matched pattern.
type Detection struct {
	RuleName string
	Severity float64
	Category string
	Start    int
	End      int
}

// Result summarizes one scan.
type Result struct {
	Flagged    bool
	Score      float64
	Detections []Detection
}

// Rules lists the distinct rule names that matched, in rule order.
func (r Result) Rules() []string {
	var names []string
	seen := make(map[string]bool)
	for _, d := range r.Detections {
		if !seen[d.RuleName] {
			seen[d.RuleName] = true
			names = append(names, d.RuleName)
		}
	}
	return names
}

type Scanner struct {
	rules   []Rule
	cfg     func() config.ScreeningConfig
	metrics *telemetry.Metrics
}

func NewScanner(cfg func() config.ScreeningConfig, metrics *telemetry.Metrics) *Scanner {
	return &Scanner{rules: DefaultRules(), cfg: cfg, metrics: metrics}
}

func (s *Scanner) Enabled() bool { return s != nil && s.cfg().Enabled }

// Scan checks text and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, r := range s.rules {
		for _, loc := range r.Regex.FindAllStringIndex(text, -1) {
			detections = append(detections, Detection{
				RuleName: r.Name,
				Severity: r.Severity,
				Category: r.Category,
				Start:    loc[0],
				End:      loc[1],
			})
		}
	}
	return detections
}

// Screen scans a transcript, logs and counts a flagged result, and returns it.
// A nil or disabled scanner returns the zero Result.
func (s *Scanner) Screen(requestID, text string) Result {
	if !s.Enabled() {
		return Result{}
	}
	detections := s.Scan(text)
	res := Result{Detections: detections}
	for _, d := range detections {
		if d.Severity > res.Score {
			res.Score = d.Severity
		}
	}
	if len(detections) == 0 || res.Score < s.cfg().FlagThreshold {
		return res
	}

	res.Flagged = true
	rules := res.Rules()
	for _, name := range rules {
		s.metrics.RecordScreeningFlag(name)
	}
	slog.Warn("transcript flagged by screening",
		"request_id", requestID,
		"score", res.Score,
		"rules", rules,
		"detections", len(detections),
	)
	return res
}
