package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestToBody(t *testing.T) {
	t.Run("renders json tags", func(t *testing.T) {
		computed := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

		body, err := ToBody(&LocationScore{LocationID: "loc-1", Status: "rated", WeightedScore: 4.2, RatingCount: 3, ComputedAt: computed})

		require.NoError(t, err)
		m := body.AsMap()
		assert.Equal(t, "loc-1", m["location_id"])
		assert.Equal(t, 4.2, m["weighted_score"])
		assert.Equal(t, 3.0, m["rating_count"])
		assert.Equal(t, "2025-06-01T08:30:00Z", m["computed_at"])
	})

	t.Run("omits unset optional fields", func(t *testing.T) {
		body, err := ToBody(&TimeAnalysis{LocationID: "loc-1", WindowDays: 30})

		require.NoError(t, err)
		_, best := body.AsMap()["best_period"]
		assert.False(t, best)
	})

	t.Run("rejects a non-object message", func(t *testing.T) {
		_, err := ToBody([]string{"a"})

		assert.Error(t, err)
	})
}

func TestFromBody(t *testing.T) {
	t.Run("fills the typed message", func(t *testing.T) {
		body, err := structpb.NewStruct(map[string]any{"location_id": "loc-1", "score": 4, "submitter_id": "u-1", "extra": "x"})
		require.NoError(t, err)

		var req SubmitRatingRequest
		require.NoError(t, FromBody(body, &req))

		assert.Equal(t, "loc-1", req.LocationID)
		assert.Equal(t, 4, req.Score)
		require.NotNil(t, req.SubmitterID)
		assert.Equal(t, "u-1", *req.SubmitterID)
	})

	t.Run("fractional score does not fit an int", func(t *testing.T) {
		body, err := structpb.NewStruct(map[string]any{"location_id": "loc-1", "score": 4.5})
		require.NoError(t, err)

		assert.Error(t, FromBody(body, &SubmitRatingRequest{}))
	})

	t.Run("score distribution keys round trip", func(t *testing.T) {
		body, err := ToBody(&RatingSummary{LocationID: "loc-1", ScoreDistribution: map[int]int64{1: 0, 4: 5}})
		require.NoError(t, err)

		var out RatingSummary
		require.NoError(t, FromBody(body, &out))

		assert.Equal(t, map[int]int64{1: 0, 4: 5}, out.ScoreDistribution)
	})
}
