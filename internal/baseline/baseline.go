// Package baseline records accepted data-quality warnings so that repeated
// checkpoint runs only surface new ones.
package baseline

import (
	"crypto/sha256"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dotcommander/qtrend/internal/types"
)

// DefaultPath is the baseline file used when none is configured.
const DefaultPath = ".qtrendbaseline.json"

var (
	doubleQuoted = regexp.MustCompile(`"[^"]+"`)
	singleQuoted = regexp.MustCompile(`(^|\s)'([^']+)'(\s|$)`)
	numbers      = regexp.MustCompile(`\d+(\.\d+)?`)
)

// Baseline represents a snapshot of known issues that should be ignored
type Baseline struct {
	Version      string          `json:"version"`
	CreatedAt    string          `json:"created_at"`
	Fingerprints []string        `json:"fingerprints"`
	index        map[string]bool // For fast lookup
}

// CreateBaseline creates a new baseline from a list of validation issues
func CreateBaseline(issues []types.ValidationError) *Baseline {
	fingerprints := make([]string, 0, len(issues))
	index := make(map[string]bool)

	for _, issue := range issues {
		fp := fingerprint(issue)
		if !index[fp] {
			fingerprints = append(fingerprints, fp)
			index[fp] = true
		}
	}

	// Sort for deterministic output
	sort.Strings(fingerprints)

	return &Baseline{
		Version:      "1.0",
		Fingerprints: fingerprints,
		index:        index,
	}
}

// LoadBaseline loads a baseline from a JSON file
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}

	b.index = make(map[string]bool, len(b.Fingerprints))
	for _, fp := range b.Fingerprints {
		b.index[fp] = true
	}

	return &b, nil
}

// SaveBaseline saves the baseline to a JSON file
func (b *Baseline) SaveBaseline(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}

	return nil
}

// IsKnown checks if an issue is in the baseline
func (b *Baseline) IsKnown(issue types.ValidationError) bool {
	if b.index == nil {
		return false
	}
	return b.index[fingerprint(issue)]
}

// Len returns the number of accepted fingerprints.
func (b *Baseline) Len() int {
	return len(b.Fingerprints)
}

// fingerprint hashes check name, questionnaire and the normalized message.
// Timepoints are left out so an accepted warning stays accepted as new
// administrations arrive.
func fingerprint(issue types.ValidationError) string {
	msg := normalizeMessage(issue.Message)
	data := fmt.Sprintf("%s|%s|%s", issue.Check, strings.ToLower(strings.TrimSpace(issue.Questionnaire)), msg)

	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// normalizeMessage replaces quoted values and numbers with placeholders so
// that counts and percentages changing between runs match the same pattern.
func normalizeMessage(msg string) string {
	msg = doubleQuoted.ReplaceAllString(msg, `"*"`)

	// Match only when surrounded by whitespace/start/end to avoid contractions
	msg = singleQuoted.ReplaceAllString(msg, `$1'*'$3`)

	msg = numbers.ReplaceAllString(msg, `N`)

	return strings.Join(strings.Fields(msg), " ")
}
