package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

type fakeRetrieveClient struct {
	calls  []*bedrockagentruntime.RetrieveInput
	output *bedrockagentruntime.RetrieveOutput
	err    error
}

func (f *fakeRetrieveClient) Retrieve(_ context.Context, in *bedrockagentruntime.RetrieveInput, _ ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func marshalMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestQueryMissingKnowledgeBaseID(t *testing.T) {
	client := &fakeRetrieveClient{}
	r := NewRetriever(client, map[string]string{}, nil)

	resp := r.Query(context.Background(), PolicyDecisionsKB, "latest vote", 5)
	out := marshalMap(t, resp)

	assert.Equal(t, "kb_policy_decisions", out["knowledge_base"])
	assert.Equal(t, "Missing KB_POLICY_DECISIONS_ID environment variable for kb_policy_decisions.", out["error"])
	assert.NotContains(t, out, "results")
	assert.Empty(t, client.calls)
}

func TestQueryClampsResultsAndMapsPassages(t *testing.T) {
	client := &fakeRetrieveClient{output: &bedrockagentruntime.RetrieveOutput{
		RetrievalResults: []types.KnowledgeBaseRetrievalResult{
			{
				Content: &types.RetrievalResultContent{Text: aws.String("The Federal Reserve concluded...")},
				Score:   aws.Float64(0.82),
				Location: &types.RetrievalResultLocation{
					Type:       types.RetrievalResultLocationTypeS3,
					S3Location: &types.RetrievalResultS3Location{Uri: aws.String("s3://corpus/monetary_policy_summaries.txt")},
				},
			},
			{
				Content: &types.RetrievalResultContent{Text: aws.String("no location")},
			},
		},
	}}
	r := NewRetriever(client, map[string]string{"KB_MONETARY_POLICY_ID": "KB123"}, nil)

	resp := r.Query(context.Background(), MonetaryPolicyKB, "rate path", 50)
	require.Len(t, client.calls, 1)
	in := client.calls[0]
	assert.Equal(t, "KB123", aws.ToString(in.KnowledgeBaseId))
	assert.Equal(t, "rate path", aws.ToString(in.RetrievalQuery.Text))
	assert.Equal(t, int32(10), aws.ToInt32(in.RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults))

	out := marshalMap(t, resp)
	assert.Equal(t, "kb_monetary_policy_summaries", out["knowledge_base"])
	assert.NotContains(t, out, "error")
	results := out["results"].([]interface{})
	require.Len(t, results, 2)

	first := results[0].(map[string]interface{})
	assert.Equal(t, "The Federal Reserve concluded...", first["text"])
	assert.Equal(t, 0.82, first["score"])
	assert.Equal(t, map[string]interface{}{"uri": "s3://corpus/monetary_policy_summaries.txt"}, first["source"])

	second := results[1].(map[string]interface{})
	assert.Nil(t, second["score"])
	assert.Nil(t, second["source"])
}

func TestClampResults(t *testing.T) {
	assert.Equal(t, 1, ClampResults(-3))
	assert.Equal(t, 1, ClampResults(0))
	assert.Equal(t, 7, ClampResults(7))
	assert.Equal(t, 10, ClampResults(11))
}

func TestQueryRetrievalFailure(t *testing.T) {
	client := &fakeRetrieveClient{err: errors.New("AccessDeniedException: not authorized")}
	r := NewRetriever(client, map[string]string{"KB_REGULATORY_CHANGES_ID": "KB9"}, nil)

	out := marshalMap(t, r.Query(context.Background(), RegulatoryChangesKB, "capital rules", 5))
	assert.Equal(t, "kb-regulatory-changes", out["knowledge_base"])
	assert.Equal(t, "AccessDeniedException: not authorized", out["error"])
	assert.NotContains(t, out, "results")
}

func TestKnowledgeToolsDefaultMaxResults(t *testing.T) {
	client := &fakeRetrieveClient{output: &bedrockagentruntime.RetrieveOutput{}}
	r := NewRetriever(client, map[string]string{"KB_ECONOMIC_INDICATORS_ID": "KB1"}, nil)

	registry := NewToolRegistry()
	require.NoError(t, registry.Register(r.Tools()...))
	assert.Equal(t, []string{
		"query_economic_indicators_kb",
		"query_monetary_policy_kb",
		"query_policy_decisions_kb",
		"query_regulatory_changes_kb",
	}, registry.List())

	result := registry.Execute(context.Background(), ToolCall{
		ToolName:   "query_economic_indicators_kb",
		Parameters: map[string]interface{}{"query": "CPI trend"},
	})
	require.True(t, result.Success, result.Error)
	require.Len(t, client.calls, 1)
	assert.Equal(t, int32(5), aws.ToInt32(client.calls[0].RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults))
	assert.Equal(t, map[string]interface{}{"knowledge_base": "kb_economic_indicators", "results": []interface{}{}}, marshalMap(t, result.Data))

	result = registry.Execute(context.Background(), ToolCall{
		ToolName:   "query_economic_indicators_kb",
		Parameters: map[string]interface{}{"query": "CPI trend", "max_results": 0},
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, int32(1), aws.ToInt32(client.calls[1].RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults))

	result = registry.Execute(context.Background(), ToolCall{
		ToolName:   "query_economic_indicators_kb",
		Parameters: map[string]interface{}{"max_results": 3},
	})
	assert.False(t, result.Success)
	assert.Equal(t, "validation", result.Metadata["error_kind"])
}

func TestRetrieveToolFiltersByScore(t *testing.T) {
	client := &fakeRetrieveClient{output: &bedrockagentruntime.RetrieveOutput{
		RetrievalResults: []types.KnowledgeBaseRetrievalResult{
			{Content: &types.RetrievalResultContent{Text: aws.String("strong")}, Score: aws.Float64(0.9)},
			{Content: &types.RetrievalResultContent{Text: aws.String("weak")}, Score: aws.Float64(0.2)},
			{Content: &types.RetrievalResultContent{Text: aws.String("unscored")}},
		},
	}}
	r := NewRetriever(client, map[string]string{EnvDefaultKnowledgeBase: "KB-DEFAULT"}, nil)
	registry := NewToolRegistry()
	require.NoError(t, registry.Register(r.RetrieveTool()))

	result := registry.Execute(context.Background(), ToolCall{
		ToolName:   "retrieve",
		Parameters: map[string]interface{}{"text": "bank capital rules"},
	})
	require.True(t, result.Success, result.Error)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "KB-DEFAULT", aws.ToString(client.calls[0].KnowledgeBaseId))
	assert.Equal(t, int32(10), aws.ToInt32(client.calls[0].RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults))

	out := marshalMap(t, result.Data)
	assert.Equal(t, "KB-DEFAULT", out["knowledge_base"])
	results := out["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, "strong", results[0].(map[string]interface{})["text"])
	assert.Equal(t, "unscored", results[1].(map[string]interface{})["text"])

	result = registry.Execute(context.Background(), ToolCall{
		ToolName: "retrieve",
		Parameters: map[string]interface{}{
			"text":              "bank capital rules",
			"knowledge_base_id": "KB-OTHER",
			"number_of_results": 3,
			"score":             0,
		},
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "KB-OTHER", aws.ToString(client.calls[1].KnowledgeBaseId))
	assert.Equal(t, int32(3), aws.ToInt32(client.calls[1].RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults))
	assert.Len(t, marshalMap(t, result.Data)["results"], 3)
}

func TestRetrieveWithoutKnowledgeBase(t *testing.T) {
	client := &fakeRetrieveClient{}
	r := NewRetriever(client, map[string]string{}, nil)

	out := marshalMap(t, r.Retrieve(context.Background(), "", "anything", 5, DefaultMinScore))
	assert.Equal(t, "Missing knowledge_base_id and KNOWLEDGE_BASE_ID environment variable.", out["error"])
	assert.NotContains(t, out, "results")
	assert.Empty(t, client.calls)

	_, err := r.RetrieveTool().Execute(context.Background(), map[string]interface{}{"text": ""})
	var validation *econflux.ValidationError
	assert.ErrorAs(t, err, &validation)
}
