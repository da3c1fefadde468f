package energy

import (
	"sort"

	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/orb"
)

// Oblast is one admin-level-1 boundary polygon.
type Oblast struct {
	Name     string
	Geometry orb.Geometry // Polygon or MultiPolygon
}

// DefaultOblastNameSwaps corrects the GADM transliteration variants to the
// standard English spellings used everywhere downstream. Static
// configuration, never derived from data.
var DefaultOblastNameSwaps = map[string]string{
	"Khmel'nyts'kyy":   "Khmelnytskyi",
	"Donets'k":         "Donetsk",
	"Dnipropetrovs'k":  "Dnipropetrovsk",
	"Luhans'k":         "Luhansk",
	"L'viv":            "Lviv",
	"Sevastopol'":      "Sevastopol",
	"Ivano-Frankivs'k": "Ivano-Frankivsk",
	"Ternopil'":        "Ternopil",
}

// NormalizeOblastName applies the swap table, returning the name unchanged
// when no variant matches.
func NormalizeOblastName(name string, swaps map[string]string) string {
	if swaps == nil {
		swaps = DefaultOblastNameSwaps
	}
	if normalized, ok := swaps[name]; ok {
		return normalized
	}
	return name
}

// AssignOblasts labels every feature with the oblast it falls in, in two
// passes:
//
//  1. strict: the feature must lie fully within the oblast polygon;
//  2. relaxed: features still unassigned (typically straddling a boundary)
//     take the first oblast they intersect.
//
// Oblasts are tested in lexicographic name order, so the relaxed-pass
// tie-break is deterministic. Features matching in neither pass keep an
// empty Oblast. Oblast polygons are never modified.
//
// Each feature's assignment is independent, so the predicate evaluation
// fans out over maxConcurrentOps workers.
func AssignOblasts(logger *logpkg.Logger, features []*Feature, oblasts []*Oblast, maxConcurrentOps uint) {
	ordered := make([]*Oblast, len(oblasts))
	copy(ordered, oblasts)
	sort.Slice(ordered, func(a, b int) bool {
		return ordered[a].Name < ordered[b].Name
	})

	sema := semaphore.NewSemaphore(maxConcurrentOps)
	for _, feature := range features {
		feature := feature
		sema.Add()
		go func() {
			defer sema.Done()
			for _, oblast := range ordered {
				if GeometryWithin(feature.Geometry, oblast.Geometry) {
					feature.Oblast = oblast.Name
					return
				}
			}
		}()
	}
	sema.Wait()

	var unmatched []*Feature
	for _, feature := range features {
		if feature.Oblast == "" {
			unmatched = append(unmatched, feature)
		}
	}
	if len(unmatched) == 0 {
		return
	}

	logger.Debug("oblast assignment: %d features unmatched after strict pass, retrying with intersects", len(unmatched))

	for _, feature := range unmatched {
		feature := feature
		sema.Add()
		go func() {
			defer sema.Done()
			for _, oblast := range ordered {
				if GeometryIntersects(feature.Geometry, oblast.Geometry) {
					feature.Oblast = oblast.Name
					return
				}
			}
		}()
	}
	sema.Wait()
}
