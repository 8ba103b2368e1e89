package grpc

import (
	pb "github.com/godilite/freshness-server/api/v1"
	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/internal/service"
)

func toPBRating(r models.Rating) pb.Rating {
	return pb.Rating{
		ID:          r.ID,
		LocationID:  r.LocationID,
		Score:       r.Score,
		SubmitterID: r.SubmitterID,
		CreatedAt:   r.CreatedAt,
	}
}

func toPBScore(s service.ScoreSnapshot) pb.LocationScore {
	return pb.LocationScore{
		LocationID:    s.LocationID,
		Status:        string(s.Status),
		WeightedScore: s.WeightedScore,
		RatingCount:   s.RatingCount,
		ComputedAt:    s.ComputedAt,
	}
}

func toPBLocation(l models.Location) pb.Location {
	return pb.Location{
		ID:        l.ID,
		Name:      l.Name,
		Address:   l.Address,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		CreatedAt: l.CreatedAt,
	}
}

func toPBLocations(locs []models.Location) []pb.Location {
	out := make([]pb.Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, toPBLocation(l))
	}
	return out
}

func toPBDetail(d service.LocationDetail) pb.LocationDetail {
	return pb.LocationDetail{
		Location:             toPBLocation(d.Location),
		Status:               string(d.Status),
		FreshnessScore:       d.FreshnessScore,
		RecencyAdjustedScore: d.RecencyAdjustedScore,
		TotalRatings:         d.TotalRatings,
		LastRatedAt:          d.LastRatedAt,
		ComputedAt:           d.ComputedAt,
	}
}

func toPBRecommendations(recs []service.TimeRecommendation) []pb.TimeRecommendation {
	out := make([]pb.TimeRecommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, pb.TimeRecommendation{
			Period:       string(r.Period),
			AverageScore: r.AverageScore,
			Confidence:   string(r.Confidence),
			SampleSize:   r.SampleSize,
			TimeRange:    r.TimeRange,
		})
	}
	return out
}

func toPBSummary(s service.RatingSummary) *pb.RatingSummary {
	activity := make([]pb.RatingActivity, 0, len(s.RecentActivity))
	for _, a := range s.RecentActivity {
		activity = append(activity, pb.RatingActivity{Score: a.Score, CreatedAt: a.CreatedAt})
	}
	return &pb.RatingSummary{
		LocationID:        s.LocationID,
		CurrentScore:      toPBScore(s.CurrentScore),
		TotalRatings:      s.TotalRatings,
		LastRated:         s.LastRated,
		OptimalTimes:      toPBRecommendations(s.OptimalTimes),
		RecentActivity:    activity,
		ScoreDistribution: s.ScoreDistribution,
	}
}

func periodName(p *service.TimePeriod) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

func toPBTimeAnalysis(v service.TimeAnalysisView) *pb.TimeAnalysis {
	return &pb.TimeAnalysis{
		LocationID:           v.LocationID,
		WindowDays:           v.WindowDays,
		TimeRecommendations:  toPBRecommendations(v.Analysis.TimeRecommendations),
		BestPeriod:           periodName(v.Analysis.BestPeriod),
		WorstPeriod:          periodName(v.Analysis.WorstPeriod),
		TotalAnalyzedRatings: v.Analysis.TotalAnalyzedRatings,
		HasReliableData:      v.Analysis.HasReliableData,
		Message:              v.Message,
	}
}

func toPBStats(s service.LocationStats) *pb.LocationStats {
	return &pb.LocationStats{
		LocationID:     s.LocationID,
		RatingCount7d:  s.RatingCount7d,
		AverageScore7d: s.AverageScore7d,
		Score:          toPBScore(s.Score),
		ComputedAt:     s.ComputedAt,
	}
}

func toPBNearby(results []service.NearbyResult) []pb.NearbyLocation {
	out := make([]pb.NearbyLocation, 0, len(results))
	for _, r := range results {
		out = append(out, pb.NearbyLocation{
			Location:       toPBLocation(r.Location),
			DistanceMeters: r.DistanceMeters,
			Score:          toPBScore(r.Score),
		})
	}
	return out
}

func toPBRanked(top []service.RankedLocation) []pb.RankedLocation {
	out := make([]pb.RankedLocation, 0, len(top))
	for _, r := range top {
		out = append(out, pb.RankedLocation{LocationID: r.LocationID, Score: r.Score})
	}
	return out
}
