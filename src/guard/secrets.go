// Package guard runs pre-push safety checks. The only current check is a
// secret scan over everything the pipeline is about to bake into the image
// or its manifest — the Dockerfile, resolved build args, and label values —
// so registry credentials and other secrets can never leak into a published
// artifact.
package guard

import (
	"fmt"
	"os"
	"sort"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Finding is one detected secret.
type Finding struct {
	Subject string // what was scanned: file path, "build-arg", "label"
	Line    int    // 1-based line within the subject, 0 if not line-oriented
	RuleID  string
	Message string
}

// Scanner wraps a gitleaks detector with the default ruleset.
type Scanner struct {
	detector *detect.Detector
}

// NewScanner creates a scanner with the gitleaks default config.
func NewScanner() (*Scanner, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("initializing secret detector: %w", err)
	}
	return &Scanner{detector: d}, nil
}

// ScanFile scans a file on disk (the Dockerfile).
func (s *Scanner) ScanFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	hits := s.detector.DetectBytes(data)
	findings := make([]Finding, 0, len(hits))
	for _, h := range hits {
		findings = append(findings, Finding{
			Subject: path,
			Line:    h.StartLine + 1, // gitleaks is 0-indexed
			RuleID:  h.RuleID,
			Message: h.Description,
		})
	}
	return findings, nil
}

// ScanValues scans a key-value map (build args, labels) rendered one pair
// per line. subject names the map in findings.
func (s *Scanner) ScanValues(subject string, values map[string]string) []Finding {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	for _, k := range keys {
		buf = append(buf, k...)
		buf = append(buf, '=')
		buf = append(buf, values[k]...)
		buf = append(buf, '\n')
	}

	hits := s.detector.DetectBytes(buf)
	findings := make([]Finding, 0, len(hits))
	for _, h := range hits {
		f := Finding{
			Subject: subject,
			RuleID:  h.RuleID,
			Message: h.Description,
		}
		if h.StartLine >= 0 && h.StartLine < len(keys) {
			f.Message = fmt.Sprintf("%s (key %q)", h.Description, keys[h.StartLine])
		}
		findings = append(findings, f)
	}
	return findings
}
