package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	missing, extra := Reconcile(
		map[string]int{"bottle": 0, "cup": 3, "saucer": 1},
		map[string]int{"bottle": 2, "cup": 1},
	)
	assert.Equal(t, map[string]int{"bottle": 2}, missing)
	assert.Equal(t, map[string]int{"cup": 2, "saucer": 1}, extra)
}

func TestReconcileOmitsZeros(t *testing.T) {
	missing, extra := Reconcile(map[string]int{"cup": 2}, map[string]int{"cup": 2, "lid": 0})
	assert.Empty(t, missing)
	assert.Empty(t, extra)
}

func TestIngest(t *testing.T) {
	valid, rejected := Ingest([]Detection{
		det("cup", 0.9, 0.1, 0.1, 0.1, 0.1),
		det("cup", 0, 0.1, 0.1, 0.1, 0.1),
		det("cup", 0.9, -0.1, 0.1, 0.1, 0.1),
		det("cup", 0.9, 0.1, 0.1, 0.1, 0.1+0.9),
		det("lid", 0.9, 0.5, 0.5, 0.5, 0.5),
	})

	assert.Len(t, valid, 2)
	assert.Equal(t, "lid", valid[1].Label)
	assert.Len(t, rejected, 3)
	for _, r := range rejected {
		assert.Contains(t, r.Reason, ErrMalformedDetection.Error())
	}
}

func TestIngestTrimsLabel(t *testing.T) {
	valid, rejected := Ingest([]Detection{
		det("  tea bottle ", 0.9, 0.1, 0.1, 0.1, 0.1),
		det("   ", 0.9, 0.1, 0.1, 0.1, 0.1),
	})

	require.Len(t, valid, 1)
	assert.Equal(t, "tea bottle", valid[0].Label)
	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Index)
}

func TestIngestBatchRemapsPositions(t *testing.T) {
	valid, rejected := ingestBatch(Batch{
		Detections: []Detection{
			det("cup", 0, 0.1, 0.1, 0.1, 0.1),
			det("cup", 0.9, 0.1, 0.1, 0.1, 0.1),
		},
		Rejected:  []Rejection{{Index: 0, Reason: "bad entry"}, {Index: 3, Reason: "bad entry"}},
		Positions: []int{1, 2},
	})

	assert.Len(t, valid, 1)
	indexes := make([]int, 0, len(rejected))
	for _, r := range rejected {
		indexes = append(indexes, r.Index)
	}
	assert.Equal(t, []int{0, 1, 3}, indexes)
}
