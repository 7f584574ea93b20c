package synth

import (
	"fmt"
	"math"
	"time"
)

// EconomicIndicator reports a macroeconomic data release.
type EconomicIndicator struct {
	Indicator    string    `json:"indicator"`
	Value        float64   `json:"value"`
	PriorValue   float64   `json:"prior_value"`
	Consensus    float64   `json:"consensus"`
	ReportedDate time.Time `json:"reported_date"`
	Context      string    `json:"context"`
}

// Fields implements Record.
func (e EconomicIndicator) Fields() []Field {
	return []Field{
		{"Indicator", e.Indicator},
		{"Release Date", FormatDate(e.ReportedDate)},
		{"Current Value", percent(e.Value)},
		{"Prior Value", percent(e.PriorValue)},
		{"Consensus Forecast", percent(e.Consensus)},
	}
}

// Narrative implements Record.
func (e EconomicIndicator) Narrative() string { return e.Context }

// IndicatorNarrative holds every drawn value behind an economic data release.
type IndicatorNarrative struct {
	Indicator  string
	ReportDate time.Time
	Value      float64
	Prior      float64
	Consensus  float64

	ComingQuarters bool

	ServicesStrength bool
	Contribution     float64
	ConsumerSpending bool
	CoastalRegions   bool
	SeasonalFactors  bool

	PolicyRecalibration   bool
	FactorProminently     bool
	ConfirmsEstablishment bool
}

// DrawIndicatorNarrative draws the inputs of one economic data release.
func DrawIndicatorNarrative(r *Rand, tracker *DateTracker) IndicatorNarrative {
	n := IndicatorNarrative{
		Indicator:  pick(r, economicIndicators),
		ReportDate: tracker.Next(),
	}
	n.Value = Round(r.Uniform(-2, 8), 2)
	n.Prior = Round(n.Value+r.Uniform(-1.5, 1.5), 2)
	n.Consensus = Round(n.Value+r.Uniform(-0.5, 0.5), 2)

	n.ComingQuarters = r.Chance(0.5)

	n.ServicesStrength = r.Chance(0.5)
	n.Contribution = Round(r.Uniform(0.3, 1.2), 1)
	n.ConsumerSpending = r.Chance(0.5)
	n.CoastalRegions = r.Chance(0.5)
	n.SeasonalFactors = r.Chance(0.5)

	n.PolicyRecalibration = r.Chance(0.5)
	n.FactorProminently = r.Chance(0.5)
	n.ConfirmsEstablishment = r.Chance(0.5)
	return n
}

// Paragraphs renders the three narrative paragraphs.
func (n IndicatorNarrative) Paragraphs() [3]string {
	beat := n.Value > n.Consensus
	swing := math.Abs(n.Value-n.Prior) > 1

	trend := "relatively stable trend"
	switch {
	case n.Value > n.Prior+0.5:
		trend = "significant acceleration"
	case n.Value < n.Prior-0.5:
		trend = "moderation"
	}

	p1 := fmt.Sprintf("The latest %s data released on %s showed a reading of %s, "+
		"%s market consensus expectations of %s. "+
		"This represents a %s "+
		"compared to the prior period's %s figure. "+
		"The %s print "+
		"%s "+
		"%s, prompting analysts to "+
		"%s "+
		"for the %s.",
		n.Indicator, FormatDate(n.ReportDate), percent(n.Value),
		either(beat, "exceeding", "falling short of"), percent(n.Consensus),
		trend,
		percent(n.Prior),
		either(beat, "stronger-than-anticipated", "weaker-than-expected"),
		either(math.Abs(n.Value) > 4, "reinforces concerns about", "suggests moderate progress toward"),
		either(n.Value > 2, "sustained expansion", "economic stability"),
		either(beat, "revise upward their growth forecasts", "adopt a more cautious outlook"),
		either(n.ComingQuarters, "coming quarters", "remainder of the year"),
	)

	p2 := fmt.Sprintf("Detailed components of the %s report revealed mixed signals across different sectors. "+
		"The %s, "+
		"contributing approximately %s percentage points to the headline figure, "+
		"while %s. "+
		"Regional breakdowns indicated %s "+
		"across major metropolitan areas, with %s. "+
		"Economists noted that %s "+
		"may have %s the month-over-month change.",
		n.Indicator,
		either(n.ServicesStrength, "services sector showed particular strength", "manufacturing segment displayed resilience"),
		FormatFloat(n.Contribution),
		either(n.ConsumerSpending, "consumer spending remained robust", "business investment showed signs of stabilization"),
		either(n.Value > n.Prior, "broad-based improvement", "divergent performance"),
		either(n.CoastalRegions, "coastal regions outperforming", "midwest states showing resilience"),
		either(n.SeasonalFactors, "seasonal adjustment factors", "base effects from the prior year"),
		either(swing, "amplified", "moderated"),
	)

	p3 := fmt.Sprintf("Market reaction to the %s release was %s, "+
		"with %s "+
		"in the immediate aftermath as investors %s. "+
		"Looking forward, this data point will likely %s "+
		"in upcoming monetary policy deliberations, particularly given ongoing debates about "+
		"%s. "+
		"Analysts anticipate that subsequent releases will be critical in determining whether this reading represents "+
		"%s or "+
		"%s "+
		"a more durable shift in underlying economic conditions.",
		n.Indicator, either(math.Abs(n.Value-n.Consensus) > 0.3, "swift", "muted"),
		either(beat && n.Value > 0, "equity indices advancing", "bond yields rising"),
		either(n.PolicyRecalibration, "recalibrated expectations for central bank policy", "assessed implications for corporate earnings"),
		either(n.FactorProminently, "factor prominently", "be carefully considered"),
		either(n.Value > 2, "the sustainability of current growth trajectories", "the adequacy of policy support"),
		either(swing, "a new trend", "temporary volatility"),
		either(n.ConfirmsEstablishment, "confirms the establishment of", "provides further evidence for"),
	)

	return [3]string{p1, p2, p3}
}

// Record builds the corpus record for the narrative.
func (n IndicatorNarrative) Record() EconomicIndicator {
	p := n.Paragraphs()
	return EconomicIndicator{
		Indicator:    n.Indicator,
		Value:        n.Value,
		PriorValue:   n.Prior,
		Consensus:    n.Consensus,
		ReportedDate: n.ReportDate,
		Context:      joinParagraphs(p[:]...),
	}
}

// NewEconomicIndicator draws and renders one economic data release.
func NewEconomicIndicator(r *Rand, tracker *DateTracker) EconomicIndicator {
	return DrawIndicatorNarrative(r, tracker).Record()
}
