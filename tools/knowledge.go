package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// Result count bounds for knowledge base queries.
const (
	DefaultMaxResults = 5
	minResults        = 1
	maxResults        = 10
)

// Defaults of the generic retrieve tool.
const (
	// EnvDefaultKnowledgeBase names the knowledge base searched when the
	// model does not pass one.
	EnvDefaultKnowledgeBase = "KNOWLEDGE_BASE_ID"

	DefaultRetrieveResults = 10
	DefaultMinScore        = 0.4
)

// RetrieveAPI is the subset of the Bedrock Agent Runtime client used for
// knowledge base retrieval.
type RetrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// KnowledgeBase describes one of the four corpora indexed for retrieval.
type KnowledgeBase struct {
	ToolName    string
	Label       string
	EnvVar      string
	Description string
}

// The knowledge bases built from the synthetic corpora.
var (
	MonetaryPolicyKB = KnowledgeBase{
		ToolName: "query_monetary_policy_kb",
		Label:    "kb_monetary_policy_summaries",
		EnvVar:   "KB_MONETARY_POLICY_ID",
		Description: "Retrieve grounded passages about monetary policy summaries (rate decisions, stance, rationale). " +
			"Use when answering central bank policy questions that need citations from the monetary policy corpus.",
	}
	EconomicIndicatorsKB = KnowledgeBase{
		ToolName: "query_economic_indicators_kb",
		Label:    "kb_economic_indicators",
		EnvVar:   "KB_ECONOMIC_INDICATORS_ID",
		Description: "Retrieve grounded passages about economic indicators (GDP, CPI, unemployment, PMIs). " +
			"Use when summarizing macro releases or explaining indicator movements.",
	}
	RegulatoryChangesKB = KnowledgeBase{
		ToolName: "query_regulatory_changes_kb",
		Label:    "kb-regulatory-changes",
		EnvVar:   "KB_REGULATORY_CHANGES_ID",
		Description: "Retrieve grounded passages about regulatory changes and compliance timelines. " +
			"Use for sector rules, supervisory focus areas, and implementation guidance.",
	}
	PolicyDecisionsKB = KnowledgeBase{
		ToolName: "query_policy_decisions_kb",
		Label:    "kb_policy_decisions",
		EnvVar:   "KB_POLICY_DECISIONS_ID",
		Description: "Retrieve grounded passages about policy decisions (vote splits, guidance, inflation context). " +
			"Use for central banking decision rationale, forward guidance, and committee votes.",
	}
)

// KnowledgeBases lists the knowledge bases in registration order.
var KnowledgeBases = []KnowledgeBase{MonetaryPolicyKB, EconomicIndicatorsKB, RegulatoryChangesKB, PolicyDecisionsKB}

// Passage is one retrieved chunk.
type Passage struct {
	Text   string      `json:"text"`
	Score  *float64    `json:"score"`
	Source interface{} `json:"source"`
}

// KnowledgeResponse is the output of a knowledge base tool. Exactly one of
// Results or Error is reported.
type KnowledgeResponse struct {
	KnowledgeBase string
	Results       []Passage
	Error         string
}

// MarshalJSON omits results when the query failed.
func (r KnowledgeResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			KnowledgeBase string `json:"knowledge_base"`
			Error         string `json:"error"`
		}{r.KnowledgeBase, r.Error})
	}
	results := r.Results
	if results == nil {
		results = []Passage{}
	}
	return json.Marshal(struct {
		KnowledgeBase string    `json:"knowledge_base"`
		Results       []Passage `json:"results"`
	}{r.KnowledgeBase, results})
}

// KnowledgeParams are the inputs of every knowledge base tool.
type KnowledgeParams struct {
	Query      string `json:"query" jsonschema:"description=User question that should be answered with context from this knowledge base."`
	MaxResults *int   `json:"max_results,omitempty" jsonschema:"description=Maximum passages to return (1-10).,default=5"`
}

// Retriever queries Bedrock knowledge bases by their configured ids.
type Retriever struct {
	client RetrieveAPI
	ids    map[string]string
	logger *slog.Logger
}

// NewRetriever creates a Retriever. ids maps each knowledge base's EnvVar
// to its id; a missing or empty id is reported per query, not here.
func NewRetriever(client RetrieveAPI, ids map[string]string, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{client: client, ids: ids, logger: logger}
}

// ClampResults bounds a requested result count to [1, 10].
func ClampResults(n int) int {
	return max(minResults, min(n, maxResults))
}

// Query runs a vector search against kb.
func (r *Retriever) Query(ctx context.Context, kb KnowledgeBase, query string, n int) KnowledgeResponse {
	id := r.ids[kb.EnvVar]
	if id == "" {
		cfgErr := econflux.NewConfigurationError(kb.EnvVar, "knowledge base id not set")
		r.logger.Warn("Knowledge base not configured", "knowledge_base", kb.Label, "error", cfgErr)
		return KnowledgeResponse{
			KnowledgeBase: kb.Label,
			Error:         fmt.Sprintf("Missing %s environment variable for %s.", kb.EnvVar, kb.Label),
		}
	}
	return r.search(ctx, kb.Label, id, query, n, 0)
}

// Retrieve searches the knowledge base with the given id, or the one named
// by KNOWLEDGE_BASE_ID when id is empty. Passages scoring below minScore
// are dropped; passages without a score are kept.
func (r *Retriever) Retrieve(ctx context.Context, id, query string, n int, minScore float64) KnowledgeResponse {
	if id == "" {
		id = r.ids[EnvDefaultKnowledgeBase]
	}
	if id == "" {
		return KnowledgeResponse{
			KnowledgeBase: "retrieve",
			Error:         fmt.Sprintf("Missing knowledge_base_id and %s environment variable.", EnvDefaultKnowledgeBase),
		}
	}
	return r.search(ctx, id, id, query, n, minScore)
}

func (r *Retriever) search(ctx context.Context, label, id, query string, n int, minScore float64) KnowledgeResponse {
	if r.client == nil {
		return KnowledgeResponse{KnowledgeBase: label, Error: "knowledge base client not configured"}
	}

	n = ClampResults(n)
	out, err := r.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(id),
		RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(n)),
			},
		},
	})
	if err != nil {
		upstream := econflux.NewUpstreamError("bedrock-agent-runtime", err)
		attrs := []any{"knowledge_base", label, "error", upstream}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "error_code", apiErr.ErrorCode())
		}
		r.logger.Error("Knowledge base retrieval failed", attrs...)
		return KnowledgeResponse{KnowledgeBase: label, Error: err.Error()}
	}

	results := make([]Passage, 0, len(out.RetrievalResults))
	for _, item := range out.RetrievalResults {
		if item.Score != nil && *item.Score < minScore {
			continue
		}
		var text string
		if item.Content != nil {
			text = aws.ToString(item.Content.Text)
		}
		results = append(results, Passage{
			Text:   text,
			Score:  item.Score,
			Source: passageSource(item.Location),
		})
	}

	r.logger.Debug("Knowledge base retrieval complete", "knowledge_base", label, "results", len(results))
	return KnowledgeResponse{KnowledgeBase: label, Results: results}
}

// passageSource prefers the S3 location and falls back to whatever other
// location the result carries.
func passageSource(loc *types.RetrievalResultLocation) interface{} {
	if loc == nil {
		return nil
	}
	if loc.S3Location != nil {
		return map[string]string{"uri": aws.ToString(loc.S3Location.Uri)}
	}

	source := map[string]string{"type": string(loc.Type)}
	switch {
	case loc.WebLocation != nil:
		source["url"] = aws.ToString(loc.WebLocation.Url)
	case loc.ConfluenceLocation != nil:
		source["url"] = aws.ToString(loc.ConfluenceLocation.Url)
	case loc.SharePointLocation != nil:
		source["url"] = aws.ToString(loc.SharePointLocation.Url)
	case loc.SalesforceLocation != nil:
		source["url"] = aws.ToString(loc.SalesforceLocation.Url)
	case loc.CustomDocumentLocation != nil:
		source["id"] = aws.ToString(loc.CustomDocumentLocation.Id)
	}
	return source
}

// Tools returns one query tool per knowledge base.
func (r *Retriever) Tools() []econflux.Tool {
	out := make([]econflux.Tool, 0, len(KnowledgeBases))
	for _, kb := range KnowledgeBases {
		out = append(out, MustFunctionTool(kb.ToolName, kb.Description,
			func(ctx context.Context, p KnowledgeParams) (KnowledgeResponse, error) {
				n := DefaultMaxResults
				if p.MaxResults != nil {
					n = *p.MaxResults
				}
				return r.Query(ctx, kb, p.Query, n), nil
			}))
	}
	return out
}

// RetrieveParams are the inputs of the generic retrieve tool.
type RetrieveParams struct {
	Text            string   `json:"text" jsonschema:"description=Query text to search for."`
	KnowledgeBaseID string   `json:"knowledge_base_id,omitempty" jsonschema:"description=Knowledge base id to search. Defaults to the deployment's default knowledge base."`
	NumberOfResults *int     `json:"number_of_results,omitempty" jsonschema:"description=Maximum passages to return (1-10).,default=10"`
	Score           *float64 `json:"score,omitempty" jsonschema:"description=Minimum relevance score between 0 and 1.,default=0.4"`
}

// RetrieveTool returns the generic retrieve tool, which searches any
// knowledge base by id.
func (r *Retriever) RetrieveTool() econflux.Tool {
	return MustFunctionTool("retrieve",
		"Retrieve passages from a Bedrock knowledge base by id. Use when a question needs a knowledge base "+
			"other than the four dedicated ones, or when a caller names a specific knowledge base id.",
		func(ctx context.Context, p RetrieveParams) (KnowledgeResponse, error) {
			if p.Text == "" {
				return KnowledgeResponse{}, econflux.NewValidationError("text", "must not be empty")
			}
			n := DefaultRetrieveResults
			if p.NumberOfResults != nil {
				n = *p.NumberOfResults
			}
			minScore := DefaultMinScore
			if p.Score != nil {
				minScore = max(0, min(*p.Score, 1))
			}
			return r.Retrieve(ctx, p.KnowledgeBaseID, p.Text, n, minScore), nil
		})
}
