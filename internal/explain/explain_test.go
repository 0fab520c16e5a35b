// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trade-mirror/pkg/types"
)

// --- fixtures ---

func ptr[T any](v T) *T { return &v }

func sampleMatch() (types.MirrorMatchLogEntry, types.ShipmentRecord, types.ShipmentRecord) {
	matched := true
	deviation := 2.0
	entry := types.MirrorMatchLogEntry{
		ExportTransactionID: "E1",
		ExportPartitionYear: 2024,
		ImportTransactionID: "I1",
		ImportPartitionYear: 2024,
		Score:               100,
		Criteria: types.MatchCriteria{
			Commodity: types.CriterionResult{Matched: &matched},
			Quantity:  types.CriterionResult{Matched: &matched, Deviation: &deviation},
		},
		MatchedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	export := types.ShipmentRecord{
		TransactionID:      "E1",
		PartitionYear:      2024,
		Direction:          types.DirectionExport,
		ReportingCountry:   "VIETNAM",
		DestinationCountry: "KENYA",
		CommodityCode:      "090111",
		ShipmentDate:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	imp := export
	imp.TransactionID = "I1"
	imp.Direction = types.DirectionImport
	imp.ReportingCountry = "KENYA"
	imp.BuyerIdentity = ptr("buyer-42")
	return entry, export, imp
}

// mockBackend records the prompt it received.
type mockBackend struct {
	prompt string
	reply  string
	err    error
}

func (m *mockBackend) Complete(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.reply, m.err
}

// --- Explainer ---

func TestExplainRendersPromptWithMatchData(t *testing.T) {
	backend := &mockBackend{reply: "The shipment quantities and vessel agree."}
	entry, export, imp := sampleMatch()

	text, err := New(backend).Explain(context.Background(), entry, export, imp)
	require.NoError(t, err)
	assert.Equal(t, "The shipment quantities and vessel agree.", text)

	// The prompt must carry the audit data for all three records.
	assert.Contains(t, backend.prompt, "export_transaction_id: E1")
	assert.Contains(t, backend.prompt, "import_transaction_id: I1")
	assert.Contains(t, backend.prompt, "score: 100")
	assert.Contains(t, backend.prompt, "buyer-42")
	assert.Contains(t, backend.prompt, "090111")
}

func TestExplainPropagatesBackendError(t *testing.T) {
	backend := &mockBackend{err: fmt.Errorf("api down")}
	entry, export, imp := sampleMatch()

	_, err := New(backend).Explain(context.Background(), entry, export, imp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E1")
	assert.Contains(t, err.Error(), "api down")
}

// --- ClaudeBackend ---

func TestClaudeBackendComplete(t *testing.T) {
	var gotReq map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		fmt.Fprint(w, `{"content": [{"type": "text", "text": "Matched on all five signals."}]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	backend := &ClaudeBackend{
		Config: types.AIConfig{Model: "claude-sonnet-4-5-20250929", APIKey: "test-key", MaxRetries: 1},
		Client: ts.Client(),
	}

	text, err := backend.Complete(context.Background(), "why did this match?")
	require.NoError(t, err)
	assert.Equal(t, "Matched on all five signals.", text)
	assert.Equal(t, "claude-sonnet-4-5-20250929", gotReq["model"])
}

func TestClaudeBackendErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "bad key"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	backend := &ClaudeBackend{Client: ts.Client()}
	_, err := backend.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClaudeBackendEmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content": []}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	backend := &ClaudeBackend{Client: ts.Client()}
	_, err := backend.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}
