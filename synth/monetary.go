package synth

import (
	"fmt"
	"time"
)

// MonetaryPolicySummary reports a central bank rate decision.
type MonetaryPolicySummary struct {
	Bank           string    `json:"bank"`
	Date           time.Time `json:"date"`
	PolicyDecision string    `json:"policy_decision"`
	CurrentRate    float64   `json:"current_rate"`
	NewRate        float64   `json:"new_rate"`
	Direction      Direction `json:"direction"`
	Summary        string    `json:"summary"`
}

// Fields implements Record.
func (m MonetaryPolicySummary) Fields() []Field {
	return []Field{
		{"Institution", m.Bank},
		{"Meeting Date", FormatDate(m.Date)},
		{"Policy Action", m.PolicyDecision},
		{"Rate Movement", fmt.Sprintf("%s → %s", percent(m.CurrentRate), percent(m.NewRate))},
		{"Policy Stance", m.Direction.Title()},
	}
}

// Narrative implements Record.
func (m MonetaryPolicySummary) Narrative() string { return m.Summary }

// MonetaryNarrative holds every drawn value behind a monetary policy summary.
type MonetaryNarrative struct {
	Bank        string
	Policy      PolicyAction
	MeetingDate time.Time

	CurrentRate     float64
	NewRate         float64
	Inflation       float64
	GDPGrowth       float64
	Unemployment    float64
	InflationTarget float64

	Unanimous       bool
	VotesFor        int
	VotesAgainst    int
	StrongConsensus bool

	Anticipated        bool
	FuturesProbability int

	HorizonMonths    int
	GeopoliticalRisk bool
	TighterFinancial bool
	LaborMarketRisk  bool
}

// DrawMonetaryNarrative draws the inputs of one monetary policy summary.
func DrawMonetaryNarrative(r *Rand, tracker *DateTracker) MonetaryNarrative {
	n := MonetaryNarrative{
		Bank:        pick(r, centralBanks),
		Policy:      pick(r, policyActions),
		MeetingDate: tracker.Next(),
	}
	n.CurrentRate = Round(r.Uniform(0.25, 5.5), 2)
	n.NewRate = Round(n.CurrentRate+float64(n.Policy.BasisPoints)/100, 2)
	n.Inflation = Round(r.Uniform(1.5, 8.5), 1)
	n.GDPGrowth = Round(r.Uniform(-1.5, 5.5), 1)
	n.Unemployment = Round(r.Uniform(3.2, 7.8), 1)

	n.InflationTarget = pick(r, inflationTargets)
	n.Unanimous = r.Chance(0.3)
	n.VotesFor = r.Int(7, 12)
	n.VotesAgainst = r.Int(1, 3)
	n.StrongConsensus = r.Chance(0.3)

	n.Anticipated = r.Chance(0.4)
	n.FuturesProbability = r.Int(65, 95)

	n.HorizonMonths = r.Int(6, 18)
	n.GeopoliticalRisk = r.Chance(0.5)
	n.TighterFinancial = r.Chance(0.5)
	n.LaborMarketRisk = r.Chance(0.5)
	return n
}

// Paragraphs renders the three narrative paragraphs.
func (n MonetaryNarrative) Paragraphs() [3]string {
	vote := "unanimous"
	if !n.Unanimous {
		vote = fmt.Sprintf("supported by a majority vote of %d to %d", n.VotesFor, n.VotesAgainst)
	}

	p1 := fmt.Sprintf("The %s concluded its monetary policy meeting on %s with the decision to "+
		"%s, bringing the policy rate from %s to %s. "+
		"This %s stance reflects the committee's assessment of current economic conditions, "+
		"particularly the persistent inflation reading of %s which remains "+
		"%s the central bank's %s target. "+
		"The decision was %s, "+
		"indicating %s among policymakers.",
		n.Bank, FormatDate(n.MeetingDate),
		n.Policy.Action, percent(n.CurrentRate), percent(n.NewRate),
		n.Policy.Direction,
		percent(n.Inflation),
		either(n.Inflation > 2.5, "above", "near"), percent(n.InflationTarget),
		vote,
		either(n.StrongConsensus, "strong consensus", "some divergence in views"),
	)

	p2 := fmt.Sprintf("Economic data preceding the meeting showed GDP growth of %s year-over-year, while "+
		"the unemployment rate held steady at %s. Labor market conditions remain "+
		"%s, with wage growth pressures "+
		"%s. "+
		"The central bank's statement emphasized that future policy adjustments will be data-dependent, "+
		"contingent upon incoming information about the economic outlook and risks to achieving both "+
		"maximum employment and price stability objectives. Financial market participants had "+
		"%s this policy move, "+
		"with fed funds futures suggesting a %d%% probability of this outcome in the week prior.",
		percent(n.GDPGrowth),
		percent(n.Unemployment),
		either(n.Unemployment < 4.5, "tight", "balanced"),
		either(n.Inflation > 3, "contributing to inflation concerns", "moderating alongside softer demand"),
		either(n.Anticipated, "largely anticipated", "not fully priced in"),
		n.FuturesProbability,
	)

	p3 := fmt.Sprintf("Looking ahead, the %s signaled that the policy rate path will depend on the evolution of "+
		"economic conditions and their implications for the inflation outlook. "+
		"Committee members' median projection suggests %s "+
		"over the next %d months, though significant uncertainty surrounds this baseline forecast. "+
		"Key risks identified include %s, "+
		"%s, "+
		"and domestic %s. "+
		"The central bank reaffirmed its commitment to using all available tools to support the economy "+
		"while maintaining its credibility on inflation control.",
		n.Bank,
		either(n.Policy.BasisPoints != 0, "additional adjustments may be warranted", "rates will likely remain stable"),
		n.HorizonMonths,
		either(n.GeopoliticalRisk, "geopolitical tensions affecting energy markets", "potential disruptions to supply chains"),
		either(n.TighterFinancial, "tighter global financial conditions", "slower growth in major trading partners"),
		either(n.LaborMarketRisk, "labor market dynamics", "credit conditions"),
	)

	return [3]string{p1, p2, p3}
}

// Record builds the corpus record for the narrative.
func (n MonetaryNarrative) Record() MonetaryPolicySummary {
	p := n.Paragraphs()
	return MonetaryPolicySummary{
		Bank:           n.Bank,
		Date:           n.MeetingDate,
		PolicyDecision: n.Policy.Action,
		CurrentRate:    n.CurrentRate,
		NewRate:        n.NewRate,
		Direction:      n.Policy.Direction,
		Summary:        joinParagraphs(p[:]...),
	}
}

// NewMonetaryPolicySummary draws and renders one monetary policy summary.
func NewMonetaryPolicySummary(r *Rand, tracker *DateTracker) MonetaryPolicySummary {
	return DrawMonetaryNarrative(r, tracker).Record()
}
