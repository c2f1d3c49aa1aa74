package semantic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone/recall/pkg/types"
)

type stubSearcher struct {
	searchFn func(ctx context.Context, userID, query string, kinds []types.EntityKind, limit int, minSimilarity float64) ([]types.SemanticMatch, error)
	calls    int
}

func (s *stubSearcher) Search(ctx context.Context, userID, query string, kinds []types.EntityKind, limit int, minSimilarity float64) ([]types.SemanticMatch, error) {
	s.calls++
	return s.searchFn(ctx, userID, query, kinds, limit, minSimilarity)
}

func TestGuard_PassesThroughResults(t *testing.T) {
	want := []types.SemanticMatch{{EntityKind: types.KindNote, EntityID: "n1", Score: 0.8}}
	stub := &stubSearcher{
		searchFn: func(context.Context, string, string, []types.EntityKind, int, float64) ([]types.SemanticMatch, error) {
			return want, nil
		},
	}
	guard := NewGuard(stub, GuardConfig{})

	matches, err := guard.Search(context.Background(), "user-1", "q3 plans", nil, 10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, want, matches)
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	backendErr := errors.New("backend down")
	stub := &stubSearcher{
		searchFn: func(context.Context, string, string, []types.EntityKind, int, float64) ([]types.SemanticMatch, error) {
			return nil, backendErr
		},
	}
	guard := NewGuard(stub, GuardConfig{MaxFailures: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := guard.Search(ctx, "user-1", "q", nil, 10, 0.5)
		assert.ErrorIs(t, err, backendErr)
	}

	// Circuit is now open; the backend must not be called again.
	callsBefore := stub.calls
	_, err := guard.Search(ctx, "user-1", "q", nil, 10, 0.5)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, callsBefore, stub.calls)
}

func TestGuard_RateLimitHonorsContext(t *testing.T) {
	stub := &stubSearcher{
		searchFn: func(context.Context, string, string, []types.EntityKind, int, float64) ([]types.SemanticMatch, error) {
			return []types.SemanticMatch{}, nil
		},
	}
	// One query per hour with burst 1: the first call spends the burst, the
	// second has to wait and should be cut short by the context deadline.
	guard := NewGuard(stub, GuardConfig{QueriesPerSecond: 1.0 / 3600, Burst: 1})

	_, err := guard.Search(context.Background(), "user-1", "q", nil, 10, 0.5)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = guard.Search(ctx, "user-1", "q", nil, 10, 0.5)
	assert.Error(t, err)
	assert.Equal(t, 1, stub.calls)
}
