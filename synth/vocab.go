package synth

import "strings"

// Direction classifies a policy action.
type Direction string

const (
	Hawkish Direction = "hawkish"
	Dovish  Direction = "dovish"
	Neutral Direction = "neutral"
)

// Title returns the direction with its first letter upper-cased.
func (d Direction) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// PolicyAction is a rate decision and its size in basis points.
type PolicyAction struct {
	Action      string
	BasisPoints int
	Direction   Direction
}

var centralBanks = []string{
	"Federal Reserve",
	"European Central Bank",
	"Bank of Japan",
	"Bank of England",
	"Swiss National Bank",
	"Reserve Bank of Australia",
}

var policyActions = []PolicyAction{
	{Action: "raise rates by 0.25%", BasisPoints: 25, Direction: Hawkish},
	{Action: "raise rates by 0.50%", BasisPoints: 50, Direction: Hawkish},
	{Action: "cut rates by 0.25%", BasisPoints: -25, Direction: Dovish},
	{Action: "cut rates by 0.50%", BasisPoints: -50, Direction: Dovish},
	{Action: "maintain current rates", BasisPoints: 0, Direction: Neutral},
}

var economicIndicators = []string{
	"GDP growth",
	"Core CPI inflation",
	"headline inflation",
	"unemployment rate",
	"labor force participation",
	"wage growth",
	"retail sales",
	"manufacturing PMI",
	"services PMI",
}

var sectors = []string{
	"banking",
	"insurance",
	"asset management",
	"fintech",
	"broker-dealers",
	"payment processors",
	"credit unions",
}

var regulatoryTopics = []string{
	"capital adequacy",
	"liquidity coverage",
	"stress testing",
	"consumer protection",
	"anti-money laundering",
	"cybersecurity",
	"climate risk disclosure",
	"leverage ratios",
}

var inflationTargets = []float64{2.0, 2.5}

// either returns a when cond holds, else b.
func either(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
