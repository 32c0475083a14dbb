// Package selector implements the nearest-antenna selection used to pick the
// stations that anchor a topographic profile. Stations are ranked by rounded
// great-circle distance from a reference point and absorbed greedily until
// enough distinct distances and distinct operators have been seen.
package selector

import (
	"math"
	"sort"

	"github.com/rfsurvey/antenna-cli/internal/antenna"
	"github.com/rfsurvey/antenna-cli/internal/geo"
)

// RankedAntenna is a station record annotated with its distance from the
// reference point, rounded to 2 decimal places. The rounding is deliberate:
// it defines the distance buckets, so stations meters apart collapse into
// one bucket and are treated as co-located.
type RankedAntenna struct {
	antenna.Record
	DistanceKM float64 `json:"distance_km"`
}

// Rank computes the rounded distance from ref to every record and returns
// the annotated records ordered by ascending distance, then operator name.
func Rank(records []antenna.Record, ref geo.Point) []RankedAntenna {
	ranked := make([]RankedAntenna, 0, len(records))
	for _, r := range records {
		ranked = append(ranked, RankedAntenna{
			Record:     r,
			DistanceKM: geo.Round(geo.Distance(ref, r.Location()), 2),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKM != ranked[j].DistanceKM {
			return ranked[i].DistanceKM < ranked[j].DistanceKM
		}
		return ranked[i].Operator < ranked[j].Operator
	})
	return ranked
}

// group is one (distance bucket, operator) partition of the ranked records.
type group struct {
	distance float64
	operator string
	records  []RankedAntenna
}

// groupRanked partitions ranked records into (distance, operator) groups,
// preserving the ascending (distance, operator) order.
func groupRanked(ranked []RankedAntenna) []group {
	var groups []group
	for _, r := range ranked {
		n := len(groups)
		if n > 0 && groups[n-1].distance == r.DistanceKM && groups[n-1].operator == r.Operator {
			groups[n-1].records = append(groups[n-1].records, r)
			continue
		}
		groups = append(groups, group{
			distance: r.DistanceKM,
			operator: r.Operator,
			records:  []RankedAntenna{r},
		})
	}
	return groups
}

// Select walks (distance, operator) groups in ascending-distance order and
// absorbs them while fewer than minBuckets distinct distances or fewer than
// minOperators distinct operators have been seen. Groups tied at the last
// absorbed distance are always included, so a boundary bucket is never split.
//
// An empty record set yields an empty result. If the data holds fewer
// distinct distances or operators than requested, all groups are absorbed
// and the full result is returned without error. Reference coordinates are
// not range-checked; out-of-range values flow through the distance formula.
func Select(records []antenna.Record, ref geo.Point, minBuckets, minOperators int) Result {
	groups := groupRanked(Rank(records, ref))

	result := make(Result)
	distances := make(map[float64]struct{})
	operators := make(map[string]struct{})
	cutoff := math.NaN()

	for _, g := range groups {
		below := len(distances) < minBuckets || len(operators) < minOperators
		if !below && g.distance != cutoff {
			break
		}
		result.absorb(g)
		distances[g.distance] = struct{}{}
		operators[g.operator] = struct{}{}
		cutoff = g.distance
	}

	return result
}

// absorb merges one group into the result, creating the distance bucket on
// first sight and folding the group's unique field values into the
// operator's bundle.
func (res Result) absorb(g group) {
	bucket, ok := res[g.distance]
	if !ok {
		bucket = &Bucket{
			Location:  g.records[0].Location(),
			Operators: make(map[string]*OperatorInfo),
		}
		res[g.distance] = bucket
	}

	info, ok := bucket.Operators[g.operator]
	if !ok {
		info = &OperatorInfo{}
		bucket.Operators[g.operator] = info
	}
	for _, r := range g.records {
		info.Frequencies = appendUniqueFloat(info.Frequencies, r.FrequencyMHz)
		info.Technologies = appendUniqueString(info.Technologies, r.Technology)
		info.Azimuths = appendUniqueFloat(info.Azimuths, r.Azimuth)
		info.Heights = appendUniqueFloat(info.Heights, r.HeightM)
	}
}

func appendUniqueFloat(values []float64, v float64) []float64 {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

func appendUniqueString(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
