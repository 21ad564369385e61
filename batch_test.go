package entitygraph

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/amiralpert/SmartReach-sub000/core/pipeline"
	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingProvider fails every section fetch and counts its invocations.
type failingProvider struct {
	calls int
}

func (p *failingProvider) GetSections(ctx context.Context, filing *model.Filing) (map[string]string, error) {
	p.calls++
	return nil, fmt.Errorf("section source unavailable")
}

// dbClosingProvider severs the graph's database connection on its first call
// and serves sections normally, so every write after the fetch fails.
type dbClosingProvider struct {
	graph *EntityGraph
	calls int
}

func (p *dbClosingProvider) GetSections(ctx context.Context, filing *model.Filing) (map[string]string, error) {
	p.calls++
	if p.calls == 1 {
		p.graph.DB.Instance.Close()
	}
	return map[string]string{"business": "GRAIL reported trial results."}, nil
}

func TestRunBatchCircuitBreaker(t *testing.T) {
	// Two graphs on the same database: the second one loses its connection
	// mid-batch, the first keeps a working one for setup and verification.
	setupGraph := initEntityGraph(t, []pipeline.ModelSpec{stubNERModel("GRAIL")}, nil)
	runGraph := initEntityGraph(t, []pipeline.ModelSpec{stubNERModel("GRAIL")}, nil)

	for i := 1; i <= 4; i++ {
		insertTestFiling(t, setupGraph, fmt.Sprintf("000%d-breaker-10k", i))
	}

	provider := &dbClosingProvider{graph: runGraph}
	summary, err := runGraph.RunBatch(context.Background(), provider, 10, false)
	require.NoError(t, err)

	assert.True(t, summary.CircuitBroken, "Expected the circuit breaker to trip")
	assert.Equal(t, 4, summary.Requested)
	assert.Equal(t, 3, summary.Processed, "Expected the batch to halt before the fourth filing")
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 3, provider.calls, "Expected no section fetch after the breaker tripped")
	assert.NotEmpty(t, summary.Message)

	require.Len(t, summary.PerFiling, 4)
	for _, result := range summary.PerFiling[:3] {
		assert.Equal(t, model.FilingStatusFailed, result.Status)
		assert.NotEmpty(t, result.Error)
	}
	assert.Equal(t, model.FilingStatusCircuitBreaker, summary.PerFiling[3].Status,
		"Expected the unattempted filing to be reported, not silently dropped")

	t.Run("Failed filings stay queued", func(t *testing.T) {
		queued, err := setupGraph.Filings.SelectUnprocessedFilings(10, nil)
		require.NoError(t, err)
		assert.Len(t, queued, 4, "Expected no failed filing marked processed")
	})
}

func TestRunBatchFetchFailuresLeaveBreakerAlone(t *testing.T) {
	graph := initEntityGraph(t, []pipeline.ModelSpec{stubNERModel("GRAIL")}, nil)

	for i := 1; i <= 4; i++ {
		insertTestFiling(t, graph, fmt.Sprintf("000%d-flaky-10k", i))
	}

	provider := &failingProvider{}
	summary, err := graph.RunBatch(context.Background(), provider, 10, false)
	require.NoError(t, err)

	assert.False(t, summary.CircuitBroken, "Expected non-storage failures to not trip the breaker")
	assert.Equal(t, 4, summary.Processed)
	assert.Equal(t, 4, summary.Failed)
	assert.Equal(t, 4, provider.calls)
}

func TestRunBatchDenylist(t *testing.T) {
	graph := initEntityGraph(t, []pipeline.ModelSpec{stubNERModel("GRAIL")}, nil)

	denied := insertTestFiling(t, graph, "0001-denied-10k")
	kept := insertTestFiling(t, graph, "0002-kept-10k")
	graph.DenyAccession(denied.AccessionNumber)

	provider := &mapSectionProvider{sections: map[string]map[string]string{
		kept.AccessionNumber: {"business": "No extractable names in this section."},
	}}

	// The denied filing is older and would win the single fetch slot if the
	// denylist were applied after the limit.
	summary, err := graph.RunBatch(context.Background(), provider, 1, false)
	require.NoError(t, err)

	require.Len(t, summary.PerFiling, 1)
	assert.Equal(t, kept.AccessionNumber, summary.PerFiling[0].AccessionNumber,
		"Expected the denylisted filing to be excluded before the limit applies")
	assert.Equal(t, model.FilingStatusSuccess, summary.PerFiling[0].Status)
}

func TestRunBatchDocumentSizeLimit(t *testing.T) {
	graph := initEntityGraph(t, []pipeline.ModelSpec{stubNERModel("GRAIL")}, nil)
	graph.Config.MaxDocumentBytes = 64

	filing := insertTestFiling(t, graph, "0001-oversize-10k")
	provider := &mapSectionProvider{sections: map[string]map[string]string{
		filing.AccessionNumber: {
			"business": "GRAIL " + strings.Repeat("lorem ipsum ", 16),
		},
	}}

	summary, err := graph.RunBatch(context.Background(), provider, 10, false)
	require.NoError(t, err)

	require.Len(t, summary.PerFiling, 1)
	assert.Equal(t, model.FilingStatusFailed, summary.PerFiling[0].Status)
	assert.Contains(t, summary.PerFiling[0].Error, "exceeds limit")
}
