package synth

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RegulatoryChange reports a new rule for a regulated sector.
type RegulatoryChange struct {
	Sector                 string    `json:"sector"`
	Topic                  string    `json:"topic"`
	AnnouncementDate       time.Time `json:"announcement_date"`
	EffectiveDate          time.Time `json:"effective_date"`
	AffectedInstitutions   int       `json:"affected_institutions"`
	CompliancePeriodMonths int       `json:"compliance_period_months"`
	Summary                string    `json:"summary"`
}

// Fields implements Record.
func (c RegulatoryChange) Fields() []Field {
	return []Field{
		{"Affected Sector", c.Sector},
		{"Regulatory Topic", c.Topic},
		{"Announcement Date", FormatDate(c.AnnouncementDate)},
		{"Effective Date", FormatDate(c.EffectiveDate)},
		{"Affected Institutions", strconv.Itoa(c.AffectedInstitutions)},
		{"Compliance Period", fmt.Sprintf("%d months", c.CompliancePeriodMonths)},
	}
}

// Narrative implements Record.
func (c RegulatoryChange) Narrative() string { return c.Summary }

// RegulatoryNarrative holds every drawn value behind a regulatory update.
type RegulatoryNarrative struct {
	Sector           string
	Topic            string
	Announcement     time.Time
	Effective        time.Time
	CompliancePeriod int
	Institutions     int

	// Announcement paragraph.
	International        bool
	LargeFirms           bool
	AtLeast              bool
	BufferPercent        int
	Above                bool
	SystemicRisk         bool
	IndustryConsultation bool
	MoreThan             bool
	CommentLetters       int
	NamedCommenters      bool

	// Provisions paragraph.
	ReportingObligations  bool
	QuarterlyAttestation  bool
	SequentialAttestation bool
	ImplementationCost    int
	OngoingCosts          bool
	RecurringCost         int
	SimplifiedForSmall    bool
	SupervisoryDiscretion bool

	// Industry response paragraph.
	MixedResponse         bool
	AcknowledgesStandards bool
	ExceedMinimums        bool
	CompetitiveEdge       bool
	OngoingDialogue       bool
	QuarterlyForums       bool
	SupervisoryGuidance   bool
	InterpretiveQuestions bool
	ThreeYearReview       bool
	ObservedOutcomes      bool
}

// DrawRegulatoryNarrative draws the inputs of one regulatory update.
func DrawRegulatoryNarrative(r *Rand, tracker *DateTracker) RegulatoryNarrative {
	n := RegulatoryNarrative{
		Sector:       pick(r, sectors),
		Topic:        pick(r, regulatoryTopics),
		Announcement: tracker.Next(),
	}
	n.Effective = n.Announcement.AddDate(0, 0, r.Int(180, 730))
	n.CompliancePeriod = r.Int(12, 36)
	n.Institutions = r.Int(150, 2500)

	n.International = r.Chance(0.5)
	n.LargeFirms = r.Chance(0.5)
	n.AtLeast = r.Chance(0.5)
	n.BufferPercent = r.Int(10, 25)
	n.Above = r.Chance(0.5)
	n.SystemicRisk = r.Chance(0.5)
	n.IndustryConsultation = r.Chance(0.5)
	n.MoreThan = r.Chance(0.5)
	n.CommentLetters = r.Int(150, 450)
	n.NamedCommenters = r.Chance(0.5)

	n.ReportingObligations = r.Chance(0.5)
	n.QuarterlyAttestation = r.Chance(0.5)
	n.SequentialAttestation = r.Chance(0.5)
	n.ImplementationCost = r.Int(200, 950)
	n.OngoingCosts = r.Chance(0.5)
	n.RecurringCost = r.Int(75, 300)
	n.SimplifiedForSmall = r.Chance(0.5)
	n.SupervisoryDiscretion = r.Chance(0.5)

	n.MixedResponse = r.Chance(0.5)
	n.AcknowledgesStandards = r.Chance(0.5)
	n.ExceedMinimums = r.Chance(0.5)
	n.CompetitiveEdge = r.Chance(0.5)
	n.OngoingDialogue = r.Chance(0.5)
	n.QuarterlyForums = r.Chance(0.5)
	n.SupervisoryGuidance = r.Chance(0.5)
	n.InterpretiveQuestions = r.Chance(0.5)
	n.ThreeYearReview = r.Chance(0.5)
	n.ObservedOutcomes = r.Chance(0.5)
	return n
}

// Paragraphs renders the three narrative paragraphs.
func (n RegulatoryNarrative) Paragraphs() [3]string {
	measure := n.Topic
	if fields := strings.Fields(n.Topic); len(fields) > 0 {
		measure = fields[0]
	}

	p1 := fmt.Sprintf("Financial regulators announced comprehensive revisions to %s requirements for the %s sector "+
		"on %s, with final rules scheduled to take effect on %s. "+
		"The new framework represents a significant overhaul of existing standards, impacting approximately "+
		"%d institutions across %s. "+
		"Under the updated regime, %s "+
		"will be required to maintain %s levels "+
		"%s %d%% "+
		"%s current thresholds, reflecting regulators' heightened "+
		"%s. "+
		"The rulemaking followed %s "+
		"during which %s %d "+
		"comment letters were submitted by %s.",
		n.Topic, n.Sector,
		FormatDate(n.Announcement), FormatDate(n.Effective),
		n.Institutions, either(n.International, "domestic and international operations", "primarily domestic operations"),
		either(n.LargeFirms, "large and mid-sized firms", "all covered entities"),
		measure,
		either(n.AtLeast, "at least", "no less than"), n.BufferPercent,
		either(n.Above, "above", "higher than"),
		either(n.SystemicRisk, "concern about systemic risk", "focus on institutional resilience"),
		either(n.IndustryConsultation, "extensive industry consultation", "a lengthy comment period"),
		either(n.MoreThan, "more than", "approximately"), n.CommentLetters,
		either(n.NamedCommenters, "industry participants, consumer advocates, and academic experts", "stakeholders across the financial services ecosystem"),
	)

	p2 := fmt.Sprintf("Key provisions of the final rule include enhanced %s, "+
		"%s, "+
		"and %s "+
		"for senior management and board members. Institutions will have %d months to achieve full compliance, "+
		"with %s "+
		"%s. "+
		"The regulatory impact analysis estimates aggregate implementation costs of "+
		"$%d million across the industry in the first year, "+
		"%s "+
		"$%d million. "+
		"%s, "+
		"though the thresholds for such treatment %s.",
		either(n.ReportingObligations, "reporting and disclosure obligations", "monitoring and surveillance requirements"),
		either(strings.Contains(n.Topic, "stress"), "mandatory stress testing scenarios", "strengthened governance frameworks"),
		either(n.QuarterlyAttestation, "quarterly attestation requirements", "annual certification processes"),
		n.CompliancePeriod,
		either(n.CompliancePeriod > 18, "phased implementation milestones", "a single compliance deadline"),
		either(n.SequentialAttestation, "requiring sequential attestation of readiness", "subject to regulatory examination and validation"),
		n.ImplementationCost,
		either(n.OngoingCosts, "with ongoing annual compliance costs of", "followed by recurring expenses approximating"),
		n.RecurringCost,
		either(n.SimplifiedForSmall, "Smaller institutions may qualify for simplified requirements", "Proportionality adjustments will apply based on asset size and risk profile"),
		either(n.SupervisoryDiscretion, "remain subject to supervisory discretion", "are clearly delineated in the final rule"),
	)

	p3 := fmt.Sprintf("Industry response to the regulatory changes has been %s, "+
		"with trade associations %s "+
		"implementation timelines and operational complexity. "+
		"%s, "+
		"viewing %s. "+
		"Regulators have committed to %s, "+
		"including %s "+
		"and %s "+
		"to address %s. "+
		"The effectiveness of the new framework will be evaluated %s, "+
		"with potential adjustments based on %s.",
		either(n.MixedResponse, "mixed", "largely critical"),
		either(n.AcknowledgesStandards, "acknowledging the importance of robust standards while expressing concerns about", "emphasizing the burden of"),
		either(n.ExceedMinimums, "Major banking groups have indicated they expect to exceed minimum requirements", "Several institutions have publicly committed to early compliance"),
		either(n.CompetitiveEdge, "strong performance on these metrics as competitive differentiators", "adherence to enhanced standards as reputational imperatives"),
		either(n.OngoingDialogue, "ongoing dialogue through the implementation period", "establishing industry working groups to address technical challenges"),
		either(n.QuarterlyForums, "quarterly public forums", "regular roundtable discussions"),
		either(n.SupervisoryGuidance, "the publication of supervisory guidance", "detailed FAQ documents"),
		either(n.InterpretiveQuestions, "emerging interpretive questions", "common compliance challenges"),
		either(n.ThreeYearReview, "after three years of operation", "on an ongoing basis"),
		either(n.ObservedOutcomes, "observed outcomes and market developments", "industry feedback and supervisory experience"),
	)

	return [3]string{p1, p2, p3}
}

// Record builds the corpus record for the narrative.
func (n RegulatoryNarrative) Record() RegulatoryChange {
	p := n.Paragraphs()
	return RegulatoryChange{
		Sector:                 n.Sector,
		Topic:                  n.Topic,
		AnnouncementDate:       n.Announcement,
		EffectiveDate:          n.Effective,
		AffectedInstitutions:   n.Institutions,
		CompliancePeriodMonths: n.CompliancePeriod,
		Summary:                joinParagraphs(p[:]...),
	}
}

// NewRegulatoryChange draws and renders one regulatory update.
func NewRegulatoryChange(r *Rand, tracker *DateTracker) RegulatoryChange {
	return DrawRegulatoryNarrative(r, tracker).Record()
}
