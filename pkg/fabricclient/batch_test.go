package fabricclient

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedContract fails submissions whose first argument matches failID.
type scriptedContract struct {
	failID string
}

func (s *scriptedContract) Submit(fn string, _ EndorserPlan, args ...string) ([]byte, error) {
	if len(args) > 0 && args[0] == s.failID {
		return nil, fmt.Errorf("NOT_FOUND: collectible %s does not exist", args[0])
	}
	return sampleRecord(args[0]), nil
}

func (s *scriptedContract) Evaluate(fn string, args ...string) ([]byte, error) {
	return sampleRecord(args[0]), nil
}

func TestSubmitBatchIsolation(t *testing.T) {
	client := newTestClient(&scriptedContract{failID: "COL-3"})

	items := []BatchItem{
		{Fn: FnCreateCollectible, Args: []string{"COL-1", "Vase A"}},
		{Fn: FnCreateCollectible, Args: []string{"COL-2", "Vase B"}},
		{Fn: FnClaimCollectible, Args: []string{"COL-3", "user-42"}},
		{Fn: FnCreateCollectible, Args: []string{"COL-4", "Vase C"}},
	}

	out := client.SubmitBatch(context.Background(), items)

	assert.Equal(t, 4, out.Submitted)
	assert.Equal(t, 3, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Items, 4)

	// Exactly the malformed item fails, at its original index.
	for i, item := range out.Items {
		assert.Equal(t, i, item.Index)
		if i == 2 {
			assert.Equal(t, BatchStatusFailed, item.Status)
			assert.Equal(t, CodeNotFound, CodeOf(item.Err))
			continue
		}
		assert.Equal(t, BatchStatusSucceeded, item.Status)
		require.NotNil(t, item.Result)
		assert.Equal(t, items[i].Args[0], item.Result.Record().ID)
	}
}

func TestSubmitBatchEmpty(t *testing.T) {
	client := newTestClient(newFakeContract())
	out := client.SubmitBatch(context.Background(), nil)
	assert.Zero(t, out.Submitted)
	assert.Empty(t, out.Items)
}
