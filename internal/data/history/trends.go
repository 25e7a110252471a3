package history

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// BuildTrendReport summarizes runs of one source in chronological order, with
// deltas against the previous run and a moving diagnostic average over window.
func BuildTrendReport(source string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded for %q", source)
	}

	ordered := make([]Run, len(runs))
	copy(ordered, runs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	points := make([]TrendPoint, 0, len(ordered))
	for i, current := range ordered {
		point := TrendPoint{
			RunID:             current.ID,
			Timestamp:         current.Timestamp,
			Valid:             current.Valid,
			SourceChanged:     true,
			EntityCount:       current.EntityCount,
			ImplicitCount:     current.ImplicitCount,
			RelationshipCount: current.RelationshipCount,
			DiagnosticCount:   len(current.Diagnostics),
		}

		if i > 0 {
			prev := ordered[i-1]
			point.SourceChanged = current.SourceHash != prev.SourceHash
			point.DeltaEntities = current.EntityCount - prev.EntityCount
			point.DeltaImplicit = current.ImplicitCount - prev.ImplicitCount
			point.DeltaRelationships = current.RelationshipCount - prev.RelationshipCount
			point.DeltaDiagnostics = len(current.Diagnostics) - len(prev.Diagnostics)
		}

		point.AvgDiagnostics = round2(movingDiagnostics(ordered, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Source:        source,
		Since:         ordered[0].Timestamp,
		Until:         ordered[len(ordered)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingDiagnostics(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(len(runs[index].Diagnostics))
	}

	cutoff := runs[index].Timestamp.Add(-window)
	total := 0
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		total += len(runs[i].Diagnostics)
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
