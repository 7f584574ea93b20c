package synth

import (
	"fmt"
	"time"
)

// PolicyDecision analyses a central bank decision and its outlook.
type PolicyDecision struct {
	Bank             string    `json:"bank"`
	Date             time.Time `json:"date"`
	NextMeeting      time.Time `json:"next_meeting"`
	PolicyDecision   string    `json:"policy_decision"`
	Vote             string    `json:"vote"`
	Direction        Direction `json:"direction"`
	CurrentInflation float64   `json:"current_inflation"`
	CoreInflation    float64   `json:"core_inflation"`
	InflationTarget  float64   `json:"inflation_target"`
	Summary          string    `json:"summary"`
}

// Fields implements Record.
func (d PolicyDecision) Fields() []Field {
	return []Field{
		{"Central Bank", d.Bank},
		{"Decision Date", FormatDate(d.Date)},
		{"Next Meeting", FormatDate(d.NextMeeting)},
		{"Policy Action", d.PolicyDecision},
		{"Vote Outcome", d.Vote},
		{"Policy Direction", d.Direction.Title()},
		{"Current Inflation", percent(d.CurrentInflation)},
		{"Core Inflation", percent(d.CoreInflation)},
		{"Inflation Target", percent(d.InflationTarget)},
	}
}

// Narrative implements Record.
func (d PolicyDecision) Narrative() string { return d.Summary }

// DecisionNarrative holds every drawn value behind a policy decision analysis.
type DecisionNarrative struct {
	Bank         string
	DecisionDate time.Time
	NextMeeting  time.Time
	Policy       PolicyAction
	Vote         string

	InflationTarget  float64
	CurrentInflation float64
	CoreInflation    float64

	// Decision paragraph.
	EmphasizedCommitment bool
	CarefullyMonitoring  bool
	FinancialStability   bool

	// Projections paragraph.
	RevisedDown        bool
	GrowthForecast     float64
	InflationForecast  float64
	StaffAnalysis      bool
	LaborTightness     bool
	HouseholdSavings   bool
	ResilientCorporate bool
	EnergyPrices       bool
	Geopolitical       bool
	KeyUncertainty     bool
	ExpressedConcern   bool

	// Guidance paragraph.
	DependOnAdjustments bool
	InflationRisks      bool
	DerivativesPricing  bool
	Probability         int
	NoChange            bool
	FurtherBasisPoints  int
	BalanceSheetPolicy  bool
	ContinueTightening  bool
	AbsentChanges       bool
	OfficialTitle       string
	OfficialName        string
	Vigilant            bool
	Optionality         bool
}

// DrawDecisionNarrative draws the inputs of one policy decision analysis.
// The next meeting is scheduled 42 to 60 days after the decision, or 30 to
// 60 days after the tracker's today when that would fall after today.
func DrawDecisionNarrative(r *Rand, tracker *DateTracker) DecisionNarrative {
	n := DecisionNarrative{
		Bank:         pick(r, centralBanks),
		DecisionDate: tracker.Next(),
	}
	n.NextMeeting = n.DecisionDate.AddDate(0, 0, r.Int(42, 60))
	if n.NextMeeting.After(tracker.Today()) {
		n.NextMeeting = tracker.Today().AddDate(0, 0, r.Int(30, 60))
	}

	n.Policy = pick(r, policyActions)
	n.Vote = "unanimous"
	if r.Chance(0.3) {
		n.Vote = fmt.Sprintf("%d-%d", r.Int(8, 12), r.Int(0, 3))
	}

	n.InflationTarget = pick(r, inflationTargets)
	n.CurrentInflation = Round(r.Uniform(1.2, 6.5), 1)
	n.CoreInflation = Round(n.CurrentInflation-r.Uniform(0.2, 1.5), 1)

	n.EmphasizedCommitment = r.Chance(0.5)
	n.CarefullyMonitoring = r.Chance(0.5)
	n.FinancialStability = r.Chance(0.5)

	n.RevisedDown = r.Chance(0.4)
	n.GrowthForecast = Round(r.Uniform(0.8, 3.5), 1)
	n.InflationForecast = Round(r.Uniform(1.8, 3.2), 1)
	n.StaffAnalysis = r.Chance(0.5)
	n.LaborTightness = r.Chance(0.5)
	n.HouseholdSavings = r.Chance(0.5)
	n.ResilientCorporate = r.Chance(0.5)
	n.EnergyPrices = r.Chance(0.5)
	n.Geopolitical = r.Chance(0.5)
	n.KeyUncertainty = r.Chance(0.5)
	n.ExpressedConcern = r.Chance(0.5)

	n.DependOnAdjustments = r.Chance(0.5)
	n.InflationRisks = r.Chance(0.5)
	n.DerivativesPricing = r.Chance(0.5)
	n.Probability = r.Int(35, 85)
	n.NoChange = r.Chance(0.4)
	n.FurtherBasisPoints = pick(r, []int{25, 50})
	n.BalanceSheetPolicy = r.Chance(0.5)
	n.ContinueTightening = r.Chance(0.5)
	n.AbsentChanges = r.Chance(0.5)
	n.OfficialTitle = either(r.Chance(0.5), "Governor", "Chair")
	n.OfficialName = r.LastName()
	n.Vigilant = r.Chance(0.5)
	n.Optionality = r.Chance(0.5)
	return n
}

// Paragraphs renders the three narrative paragraphs.
func (n DecisionNarrative) Paragraphs() [3]string {
	hawkish := n.Policy.Direction == Hawkish

	stance := "a steady approach"
	switch n.Policy.Direction {
	case Hawkish:
		stance = "further policy tightening"
	case Dovish:
		stance = "maintaining accommodative conditions"
	}

	p1 := fmt.Sprintf("At its policy meeting concluding on %s, the %s's governing council voted "+
		"%s to %s, marking a %s "+
		"the institution's monetary policy stance. The decision reflects policymakers' assessment that "+
		"%s "+
		"%s. "+
		"With headline inflation currently at %s and core inflation at %s, "+
		"%s "+
		"the central bank's %s medium-term objective. "+
		"The accompanying policy statement %s "+
		"%s "+
		"while %s "+
		"%s.",
		FormatDate(n.DecisionDate), n.Bank,
		n.Vote, n.Policy.Action, either(n.Policy.BasisPoints == 0, "continuation of", "shift in"),
		either(hawkish, "inflation pressures warrant", "economic conditions justify"),
		stance,
		percent(n.CurrentInflation), percent(n.CoreInflation),
		either(n.CurrentInflation > n.InflationTarget+0.5, "both measures remain elevated relative to", "readings are converging toward"),
		percent(n.InflationTarget),
		either(n.EmphasizedCommitment, "emphasized the committee commitment to", "reiterated the institution focus on"),
		either(n.CurrentInflation > n.InflationTarget+1, "restoring price stability", "supporting sustainable economic expansion"),
		either(n.CarefullyMonitoring, "carefully monitoring", "closely tracking"),
		either(n.FinancialStability, "financial stability risks and cross-border spillovers", "labor market dynamics and credit conditions"),
	)

	aboveTarget := n.CurrentInflation > n.InflationTarget
	p2 := fmt.Sprintf("The central bank's updated economic projections, released concurrently with the policy decision, "+
		"%s growth forecasts for the current year to "+
		"%s, while inflation is expected to "+
		"%s "+
		"%s by year-end. "+
		"%s "+
		"highlighted %s, "+
		"%s, "+
		"and %s. "+
		"External factors, including %s "+
		"and %s, "+
		"were cited as %s "+
		"surrounding the baseline outlook. Several committee members %s "+
		"%s.",
		either(n.RevisedDown, "revised downward", "maintained"),
		percent(n.GrowthForecast),
		either(aboveTarget, "decline gradually to", "remain near"),
		percent(n.InflationForecast),
		either(n.StaffAnalysis, "Staff analysis presented to the committee", "Background materials reviewed by policymakers"),
		either(n.LaborTightness, "persistent tightness in labor markets", "emerging signs of cooling in consumer demand"),
		either(n.HouseholdSavings, "elevated household savings rates", "moderating credit growth"),
		either(n.ResilientCorporate, "resilient corporate balance sheets", "stabilizing business sentiment"),
		either(n.EnergyPrices, "fluctuations in energy prices", "supply chain normalization"),
		either(n.Geopolitical, "geopolitical uncertainties", "global trade dynamics"),
		either(n.KeyUncertainty, "key sources of uncertainty", "important considerations"),
		either(n.ExpressedConcern, "expressed concern about", "noted the potential for"),
		either(aboveTarget, "second-round effects from wage settlements", "disinflationary forces gaining momentum"),
	)

	outcome := "no change"
	if !n.NoChange {
		outcome = fmt.Sprintf("a further %d basis point adjustment", n.FurtherBasisPoints)
	}

	p3 := fmt.Sprintf("Forward guidance contained in the policy statement indicated that "+
		"%s "+
		"the evolving balance of %s. "+
		"Market participants interpreted the communication as "+
		"%s "+
		"at the next scheduled meeting on %s. "+
		"%s "+
		"suggest a %d%% probability of "+
		"%s "+
		"at that meeting. The central bank also provided %s, "+
		"noting that %s "+
		"%s. "+
		"%s %s, in post-meeting remarks, "+
		"emphasized that %s, "+
		"while %s.",
		either(n.DependOnAdjustments, "future policy adjustments will depend on", "the committee will continue to assess"),
		either(n.InflationRisks, "inflation risks and growth prospects", "economic data and financial conditions"),
		either(n.Policy.BasisPoints == 0, "signaling a potential pause", "leaving the door open for additional moves"),
		FormatDate(n.NextMeeting),
		either(n.DerivativesPricing, "Interest rate derivatives pricing", "Market-implied policy expectations"),
		n.Probability,
		outcome,
		either(n.BalanceSheetPolicy, "updated guidance on balance sheet policy", "clarification regarding asset purchase operations"),
		either(n.ContinueTightening, "quantitative tightening will continue at the current pace", "the composition of securities holdings may be adjusted"),
		either(n.AbsentChanges, "absent material changes in financial conditions", "in line with operational objectives"),
		n.OfficialTitle, n.OfficialName,
		either(n.Vigilant, "the committee remains vigilant and prepared to adjust policy as warranted", "data dependency remains central to the decision-making framework"),
		either(n.Optionality, "maintaining optionality for future meetings", "preserving flexibility in the conduct of monetary policy"),
	)

	return [3]string{p1, p2, p3}
}

// Record builds the corpus record for the narrative.
func (n DecisionNarrative) Record() PolicyDecision {
	p := n.Paragraphs()
	return PolicyDecision{
		Bank:             n.Bank,
		Date:             n.DecisionDate,
		NextMeeting:      n.NextMeeting,
		PolicyDecision:   n.Policy.Action,
		Vote:             n.Vote,
		Direction:        n.Policy.Direction,
		CurrentInflation: n.CurrentInflation,
		CoreInflation:    n.CoreInflation,
		InflationTarget:  n.InflationTarget,
		Summary:          joinParagraphs(p[:]...),
	}
}

// NewPolicyDecision draws and renders one policy decision analysis.
func NewPolicyDecision(r *Rand, tracker *DateTracker) PolicyDecision {
	return DrawDecisionNarrative(r, tracker).Record()
}
