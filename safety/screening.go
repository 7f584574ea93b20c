// Package safety screens prompts before they reach the model. Screening
// runs locally ahead of the Bedrock guardrail and flags instruction-override
// attempts and prompts carrying personal data.
package safety

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// Mode selects what happens when a prompt fails screening.
type Mode string

const (
	ModeOff   Mode = "off"
	ModeWarn  Mode = "warn"
	ModeBlock Mode = "block"
)

// ParseMode maps a config value to a Mode. Unknown values warn.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOff:
		return ModeOff
	case ModeBlock:
		return ModeBlock
	default:
		return ModeWarn
	}
}

// DefaultThreshold is the injection score at which a prompt is flagged.
const DefaultThreshold = 15

var injectionPatterns = compile(
	`ignore\s+(?:\w+\s+){0,2}instructions?`,
	`disregard\s+(previous|all|above|prior)`,
	`forget\s+(everything|all|previous)`,
	`new\s+instructions?:`,
	`system\s*(prompt|message)\b`,
	`you\s+are\s+now`,
	`pretend\s+(you|to)\s+(are|be)`,
	`roleplay\s+as`,
	`(admin|developer|god)\s+mode`,
	`jailbreak`,
	`</?\s*system\s*>`,
	`<\|.*?\|>`,
	`\[INST\]`,
)

// Keywords add to the score. Finance vocabulary such as "system" in
// "Federal Reserve System" is not scored.
var suspiciousKeywords = map[string]int{
	"ignore":       3,
	"disregard":    3,
	"override":     2,
	"bypass":       3,
	"jailbreak":    5,
	"injection":    4,
	"sudo":         3,
	"instructions": 2,
}

var (
	wordPattern    = regexp.MustCompile(`\w+`)
	specialPattern = regexp.MustCompile(`[<>{}\[\]|]`)
)

var piiPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "social security number"},
	{regexp.MustCompile(`\b(?:\d[ -]?){15}\d\b`), "payment card number"},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// Finding describes why a prompt was flagged.
type Finding struct {
	Score    int
	Patterns []string
	Reason   string
}

// Screener scores prompts for injection attempts and checks content limits.
type Screener struct {
	threshold int
	maxRunes  int
}

// NewScreener creates a screener. Non-positive arguments use defaults:
// DefaultThreshold and a 10000 character prompt limit.
func NewScreener(threshold, maxRunes int) *Screener {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if maxRunes <= 0 {
		maxRunes = 10000
	}
	return &Screener{threshold: threshold, maxRunes: maxRunes}
}

// Score returns the injection score of text and the patterns it matched.
func (s *Screener) Score(text string) (int, []string) {
	lower := strings.ToLower(text)
	score := 0
	var matched []string

	for _, re := range injectionPatterns {
		if re.MatchString(lower) {
			score += 10
			matched = append(matched, re.String())
		}
	}
	for _, word := range wordPattern.FindAllString(lower, -1) {
		score += suspiciousKeywords[word]
	}
	if len(specialPattern.FindAllString(text, -1)) > 5 {
		score += 2
	}
	return score, matched
}

// Screen returns a Finding when text should not be sent to the model.
func (s *Screener) Screen(text string) *Finding {
	if n := utf8.RuneCountInString(text); n > s.maxRunes {
		return &Finding{Reason: fmt.Sprintf("prompt exceeds %d characters", s.maxRunes)}
	}
	for _, pii := range piiPatterns {
		if pii.re.MatchString(text) {
			return &Finding{Reason: "prompt may contain a " + pii.name}
		}
	}
	if score, matched := s.Score(text); score >= s.threshold {
		return &Finding{
			Score:    score,
			Patterns: matched,
			Reason:   fmt.Sprintf("potential prompt injection (score %d)", score),
		}
	}
	return nil
}

// ScreeningMiddleware screens user prompts before passing them on.
type ScreeningMiddleware struct {
	agent    econflux.Agent
	screener *Screener
	mode     Mode
	logger   *slog.Logger
}

var _ econflux.Agent = (*ScreeningMiddleware)(nil)

// NewScreeningMiddleware wraps agent. A nil screener uses the defaults.
func NewScreeningMiddleware(agent econflux.Agent, screener *Screener, mode Mode, logger *slog.Logger) *ScreeningMiddleware {
	if screener == nil {
		screener = NewScreener(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreeningMiddleware{agent: agent, screener: screener, mode: mode, logger: logger}
}

// Name returns the name of the underlying agent.
func (m *ScreeningMiddleware) Name() string {
	return m.agent.Name()
}

// Capabilities returns the capabilities of the underlying agent.
func (m *ScreeningMiddleware) Capabilities() []string {
	return m.agent.Capabilities()
}

// Process screens the message and, unless blocked, forwards it.
func (m *ScreeningMiddleware) Process(ctx context.Context, message *econflux.Message) (*econflux.Message, error) {
	if m.mode == ModeOff || message == nil {
		return m.agent.Process(ctx, message)
	}

	if finding := m.screener.Screen(message.Content); finding != nil {
		m.logger.WarnContext(ctx, "prompt failed screening",
			"session_id", message.SessionID(),
			"reason", finding.Reason,
			"score", finding.Score,
			"patterns", finding.Patterns,
			"blocked", m.mode == ModeBlock,
		)
		if m.mode == ModeBlock {
			return nil, econflux.NewValidationError("prompt", finding.Reason)
		}
	}
	return m.agent.Process(ctx, message)
}
