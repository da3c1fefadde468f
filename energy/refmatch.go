package energy

import (
	"sync"

	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// DefaultGPPDBufferMeters is the proximity radius for matching facilities
// against Global Power Plant Database points.
const DefaultGPPDBufferMeters = 500

// GPPDMatchStats is diagnostic output only; it is not persisted.
type GPPDMatchStats struct {
	MatchedReferencePoints int
	TotalReferencePoints   int
}

// FlagGPPDOverlap sets GPPDOverlap on every feature lying within
// bufferMeters of at least one reference point. Distances are evaluated in
// the Web Mercator (EPSG:3857) plane, equivalent to buffering each facility
// geometry by the radius and testing for intersection with the points.
// Features are never dropped; no match just leaves the flag false.
//
// Inputs are WGS84 lon/lat; both sides are projected before matching. The
// per-feature tests are independent and fan out over maxConcurrentOps
// workers.
func FlagGPPDOverlap(logger *logpkg.Logger, features []*Feature, referencePoints []orb.Point, bufferMeters float64, maxConcurrentOps uint) GPPDMatchStats {
	projectedPoints := make([]orb.Point, 0, len(referencePoints))
	for _, p := range referencePoints {
		projectedPoints = append(projectedPoints, project.WGS84.ToMercator(p))
	}

	matchedPoints := make([]bool, len(projectedPoints))
	var matchedPointsMu sync.Mutex

	sema := semaphore.NewSemaphore(maxConcurrentOps)
	for _, feature := range features {
		feature := feature
		sema.Add()
		go func() {
			defer sema.Done()

			// project.Geometry mutates in place, so work on a copy
			geometry := project.Geometry(orb.Clone(feature.Geometry), project.WGS84.ToMercator)

			var matched []int
			for i, p := range projectedPoints {
				if GeometryDistance(geometry, p) <= bufferMeters {
					matched = append(matched, i)
				}
			}
			if len(matched) == 0 {
				return
			}

			feature.GPPDOverlap = true

			matchedPointsMu.Lock()
			for _, i := range matched {
				matchedPoints[i] = true
			}
			matchedPointsMu.Unlock()
		}()
	}
	sema.Wait()

	stats := GPPDMatchStats{TotalReferencePoints: len(projectedPoints)}
	for _, matched := range matchedPoints {
		if matched {
			stats.MatchedReferencePoints++
		}
	}

	logger.Info("%d/%d GPPD plants matched with OSM stations", stats.MatchedReferencePoints, stats.TotalReferencePoints)

	return stats
}
