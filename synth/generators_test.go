package synth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T, records, years int, seed uint64) *DateTracker {
	t.Helper()
	tracker, err := NewDateTracker(records, years, testToday, NewRand(seed))
	require.NoError(t, err)
	return tracker
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{4, "4.0"},
		{2.5, "2.5"},
		{0.25, "0.25"},
		{-1.3, "-1.3"},
		{Round(5.5+0.5, 2), "6.0"},
		{Round(0.1+0.2, 2), "0.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
	}
}

func TestMonetaryPolicySummaryInvariants(t *testing.T) {
	r := NewRand(42)
	tracker := newTracker(t, 200, 3, 42)

	for i := 0; i < 200; i++ {
		rec := NewMonetaryPolicySummary(r, tracker)

		var action PolicyAction
		for _, a := range policyActions {
			if a.Action == rec.PolicyDecision {
				action = a
			}
		}
		require.NotEmpty(t, action.Action)
		assert.Equal(t, action.Direction, rec.Direction)
		assert.Equal(t, Round(rec.CurrentRate+float64(action.BasisPoints)/100, 2), rec.NewRate)
		assert.GreaterOrEqual(t, rec.CurrentRate, 0.25)
		assert.LessOrEqual(t, rec.CurrentRate, 5.5)
		assert.Contains(t, centralBanks, rec.Bank)
		assert.Len(t, strings.Split(rec.Summary, "\n\n"), 3)
	}
}

func TestMonetaryNarrativeText(t *testing.T) {
	n := MonetaryNarrative{
		Bank:               "Bank of England",
		Policy:             policyActions[0],
		MeetingDate:        time.Date(2024, time.May, 9, 0, 0, 0, 0, time.UTC),
		CurrentRate:        5.25,
		NewRate:            5.5,
		Inflation:          3.2,
		GDPGrowth:          -0.4,
		Unemployment:       4.1,
		InflationTarget:    2.0,
		Unanimous:          false,
		VotesFor:           7,
		VotesAgainst:       2,
		StrongConsensus:    true,
		Anticipated:        false,
		FuturesProbability: 80,
		HorizonMonths:      12,
		GeopoliticalRisk:   true,
		TighterFinancial:   false,
		LaborMarketRisk:    false,
	}

	p := n.Paragraphs()
	assert.Equal(t, "The Bank of England concluded its monetary policy meeting on 2024-05-09 with the decision to "+
		"raise rates by 0.25%, bringing the policy rate from 5.25% to 5.5%. "+
		"This hawkish stance reflects the committee's assessment of current economic conditions, "+
		"particularly the persistent inflation reading of 3.2% which remains above the central bank's 2.0% target. "+
		"The decision was supported by a majority vote of 7 to 2, indicating strong consensus among policymakers.", p[0])
	assert.Contains(t, p[1], "GDP growth of -0.4% year-over-year")
	assert.Contains(t, p[1], "Labor market conditions remain tight")
	assert.Contains(t, p[1], "contributing to inflation concerns")
	assert.Contains(t, p[1], "had not fully priced in this policy move")
	assert.Contains(t, p[1], "suggesting a 80% probability")
	assert.Contains(t, p[2], "suggests additional adjustments may be warranted over the next 12 months")
	assert.Contains(t, p[2], "geopolitical tensions affecting energy markets, slower growth in major trading partners, and domestic credit conditions.")

	rec := n.Record()
	assert.Equal(t, strings.Join(p[:], "\n\n"), rec.Summary)
	assert.Equal(t, []Field{
		{"Institution", "Bank of England"},
		{"Meeting Date", "2024-05-09"},
		{"Policy Action", "raise rates by 0.25%"},
		{"Rate Movement", "5.25% → 5.5%"},
		{"Policy Stance", "Hawkish"},
	}, rec.Fields())
}

func TestIndicatorNarrativeText(t *testing.T) {
	n := IndicatorNarrative{
		Indicator:             "retail sales",
		ReportDate:            time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC),
		Value:                 4.5,
		Prior:                 2.1,
		Consensus:             4.0,
		ComingQuarters:        true,
		ServicesStrength:      false,
		Contribution:          0.7,
		ConsumerSpending:      true,
		CoastalRegions:        false,
		SeasonalFactors:       true,
		PolicyRecalibration:   true,
		FactorProminently:     false,
		ConfirmsEstablishment: true,
	}

	p := n.Paragraphs()
	assert.Equal(t, "The latest retail sales data released on 2023-01-02 showed a reading of 4.5%, "+
		"exceeding market consensus expectations of 4.0%. "+
		"This represents a significant acceleration compared to the prior period's 2.1% figure. "+
		"The stronger-than-anticipated print reinforces concerns about sustained expansion, prompting analysts to "+
		"revise upward their growth forecasts for the coming quarters.", p[0])
	assert.Contains(t, p[1], "The manufacturing segment displayed resilience, contributing approximately 0.7 percentage points")
	assert.Contains(t, p[1], "indicated broad-based improvement across major metropolitan areas, with midwest states showing resilience.")
	assert.Contains(t, p[1], "may have amplified the month-over-month change.")
	assert.Contains(t, p[2], "release was swift, with equity indices advancing")
	assert.Contains(t, p[2], "represents a new trend or confirms the establishment of a more durable shift")

	rec := n.Record()
	assert.Equal(t, "4.5%", rec.Fields()[2].Value)
	assert.Equal(t, "Consensus Forecast", rec.Fields()[4].Label)
}

func TestIndicatorTrendWording(t *testing.T) {
	base := IndicatorNarrative{Indicator: "wage growth", Value: 1.0, Consensus: 1.0}

	base.Prior = 2.0
	assert.Contains(t, base.Paragraphs()[0], "This represents a moderation compared")

	base.Prior = 1.2
	assert.Contains(t, base.Paragraphs()[0], "This represents a relatively stable trend compared")
	assert.Contains(t, base.Paragraphs()[0], "falling short of market consensus")
}

func TestRegulatoryChangeInvariants(t *testing.T) {
	r := NewRand(9)
	tracker := newTracker(t, 100, 3, 9)

	for i := 0; i < 100; i++ {
		rec := NewRegulatoryChange(r, tracker)
		offset := int(rec.EffectiveDate.Sub(rec.AnnouncementDate).Hours() / 24)
		assert.GreaterOrEqual(t, offset, 180)
		assert.LessOrEqual(t, offset, 730)
		assert.GreaterOrEqual(t, rec.CompliancePeriodMonths, 12)
		assert.LessOrEqual(t, rec.CompliancePeriodMonths, 36)
		assert.GreaterOrEqual(t, rec.AffectedInstitutions, 150)
		assert.LessOrEqual(t, rec.AffectedInstitutions, 2500)
	}
}

func TestRegulatoryNarrativeText(t *testing.T) {
	n := RegulatoryNarrative{
		Sector:             "fintech",
		Topic:              "stress testing",
		Announcement:       time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Effective:          time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		CompliancePeriod:   24,
		Institutions:       320,
		AtLeast:            true,
		BufferPercent:      15,
		CommentLetters:     200,
		ImplementationCost: 450,
		RecurringCost:      90,
	}

	p := n.Paragraphs()
	assert.Contains(t, p[0], "Financial regulators announced comprehensive revisions to stress testing requirements for the fintech sector on 2024-06-01, with final rules scheduled to take effect on 2025-06-01.")
	assert.Contains(t, p[0], "will be required to maintain stress levels at least 15% higher than current thresholds")
	assert.Contains(t, p[1], "mandatory stress testing scenarios")
	assert.Contains(t, p[1], "Institutions will have 24 months to achieve full compliance, with phased implementation milestones")
	assert.Contains(t, p[1], "$450 million across the industry in the first year, followed by recurring expenses approximating $90 million.")
	assert.Contains(t, p[2], "Industry response to the regulatory changes has been largely critical")

	fields := n.Record().Fields()
	assert.Equal(t, Field{"Affected Institutions", "320"}, fields[4])
	assert.Equal(t, Field{"Compliance Period", "24 months"}, fields[5])
}

func TestPolicyDecisionInvariants(t *testing.T) {
	r := NewRand(5)
	tracker := newTracker(t, 100, 1, 5)

	for i := 0; i < 100; i++ {
		rec := NewPolicyDecision(r, tracker)
		gap := int(rec.NextMeeting.Sub(rec.Date).Hours() / 24)
		if rec.NextMeeting.After(tracker.Today()) {
			ahead := int(rec.NextMeeting.Sub(tracker.Today()).Hours() / 24)
			assert.GreaterOrEqual(t, ahead, 30)
			assert.LessOrEqual(t, ahead, 60)
		} else {
			assert.GreaterOrEqual(t, gap, 42)
			assert.LessOrEqual(t, gap, 60)
		}

		assert.Contains(t, []float64{2.0, 2.5}, rec.InflationTarget)
		assert.Less(t, rec.CoreInflation, rec.CurrentInflation+0.05)
		if rec.Vote != "unanimous" {
			assert.Regexp(t, `^(8|9|1[0-2])-[0-3]$`, rec.Vote)
		}
	}
}

func TestDecisionNarrativeText(t *testing.T) {
	n := DecisionNarrative{
		Bank:               "Swiss National Bank",
		DecisionDate:       time.Date(2024, time.September, 26, 0, 0, 0, 0, time.UTC),
		NextMeeting:        time.Date(2024, time.November, 14, 0, 0, 0, 0, time.UTC),
		Policy:             policyActions[4],
		Vote:               "unanimous",
		InflationTarget:    2.0,
		CurrentInflation:   3.6,
		CoreInflation:      2.9,
		GrowthForecast:     1.4,
		InflationForecast:  2.2,
		Probability:        60,
		NoChange:           false,
		FurtherBasisPoints: 25,
		OfficialTitle:      "Chair",
		OfficialName:       "Jordan",
	}

	p := n.Paragraphs()
	assert.Equal(t, "At its policy meeting concluding on 2024-09-26, the Swiss National Bank's governing council voted "+
		"unanimous to maintain current rates, marking a continuation of the institution's monetary policy stance. "+
		"The decision reflects policymakers' assessment that economic conditions justify a steady approach. "+
		"With headline inflation currently at 3.6% and core inflation at 2.9%, both measures remain elevated relative to "+
		"the central bank's 2.0% medium-term objective. "+
		"The accompanying policy statement reiterated the institution focus on restoring price stability "+
		"while closely tracking labor market dynamics and credit conditions.", p[0])
	assert.Contains(t, p[1], "maintained growth forecasts for the current year to 1.4%, while inflation is expected to decline gradually to 2.2% by year-end.")
	assert.Contains(t, p[1], "second-round effects from wage settlements.")
	assert.Contains(t, p[2], "signaling a potential pause at the next scheduled meeting on 2024-11-14.")
	assert.Contains(t, p[2], "suggest a 60% probability of a further 25 basis point adjustment at that meeting.")
	assert.Contains(t, p[2], "Chair Jordan, in post-meeting remarks")

	fields := n.Record().Fields()
	assert.Equal(t, Field{"Policy Direction", "Neutral"}, fields[5])
	assert.Equal(t, Field{"Inflation Target", "2.0%"}, fields[8])
}

func TestGeneratorsAreReproducibleWithSeed(t *testing.T) {
	run := func() []string {
		r := NewRand(1234)
		tracker, err := NewDateTracker(20, 2, testToday, r)
		require.NoError(t, err)
		var out []string
		for i := 0; i < 5; i++ {
			out = append(out, NewPolicyDecision(r, tracker).Summary)
		}
		return out
	}
	assert.Equal(t, run(), run())
}
