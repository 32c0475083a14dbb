package selector

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsurvey/antenna-cli/internal/antenna"
	"github.com/rfsurvey/antenna-cli/internal/geo"
)

// kmPerDegree is the meridian arc length on the selector's sphere, used to
// place test stations at exact distances north of the reference point.
const kmPerDegree = geo.EarthRadiusKM * 3.14159265358979323846 / 180

var testRef = geo.Point{Lat: -22.9, Lon: -43.2}

// stationAt builds a record the given number of kilometers due north of testRef.
func stationAt(operator string, km float64) antenna.Record {
	return antenna.Record{
		Operator:     operator,
		Technology:   "LTE",
		FrequencyMHz: 2600,
		Azimuth:      120,
		HeightM:      45,
		Latitude:     testRef.Lat + km/kmPerDegree,
		Longitude:    testRef.Lon,
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	result := Select(nil, testRef, 4, 2)
	assert.Empty(t, result)
}

func TestSelect_ZeroMinimumsYieldEmptyResult(t *testing.T) {
	records := []antenna.Record{stationAt("CLARO", 1)}
	result := Select(records, testRef, 0, 0)
	assert.Empty(t, result)
}

func TestSelect_OperatorDiversityExtendsSearch(t *testing.T) {
	// Three stations from one operator at 1, 2, 3 km and a second operator
	// at 4 km: with minimums (2, 2) all four buckets must be included,
	// because operator diversity is only reached at the 4 km station.
	records := []antenna.Record{
		stationAt("CLARO", 1),
		stationAt("CLARO", 2),
		stationAt("CLARO", 3),
		stationAt("VIVO", 4),
	}

	result := Select(records, testRef, 2, 2)

	assert.Equal(t, []float64{1, 2, 3, 4}, result.Distances())
	assert.Equal(t, []string{"CLARO", "VIVO"}, result.OperatorNames())
}

func TestSelect_StopsOnceBothMinimumsMet(t *testing.T) {
	records := []antenna.Record{
		stationAt("CLARO", 1),
		stationAt("VIVO", 2),
		stationAt("TIM", 3),
		stationAt("CLARO", 9),
	}

	result := Select(records, testRef, 2, 2)

	assert.Equal(t, []float64{1, 2}, result.Distances())
	assert.Equal(t, []string{"CLARO", "VIVO"}, result.OperatorNames())
}

func TestSelect_BoundaryTiesNeverSplit(t *testing.T) {
	records := []antenna.Record{
		stationAt("CLARO", 1),
		stationAt("CLARO", 2),
		stationAt("VIVO", 2),
		stationAt("TIM", 3),
	}

	result := Select(records, testRef, 2, 1)

	// Both minimums are satisfied after (2, CLARO), but the VIVO group tied
	// at 2 km is still absorbed; the 3 km group is not.
	require.Equal(t, []float64{1, 2}, result.Distances())
	bucket := result[2]
	require.NotNil(t, bucket)
	assert.Len(t, bucket.Operators, 2)
	assert.Contains(t, bucket.Operators, "CLARO")
	assert.Contains(t, bucket.Operators, "VIVO")
}

func TestSelect_InsufficientDataReturnsEverything(t *testing.T) {
	records := []antenna.Record{
		stationAt("CLARO", 1),
		stationAt("CLARO", 5),
	}

	result := Select(records, testRef, 10, 3)

	assert.Equal(t, []float64{1, 5}, result.Distances())
	assert.Equal(t, []string{"CLARO"}, result.OperatorNames())
}

func TestSelect_Idempotent(t *testing.T) {
	records := []antenna.Record{
		stationAt("CLARO", 1),
		stationAt("VIVO", 2),
		stationAt("TIM", 3),
	}

	first := Select(records, testRef, 2, 2)
	second := Select(records, testRef, 2, 2)
	assert.Equal(t, first, second)
}

func TestSelect_DistancesMatchRecomputation(t *testing.T) {
	records := []antenna.Record{
		stationAt("CLARO", 1.5),
		stationAt("VIVO", 2.25),
		stationAt("TIM", 7.83),
	}

	result := Select(records, testRef, 3, 1)

	for km, bucket := range result {
		recomputed := geo.Round(geo.Distance(testRef, bucket.Location), 2)
		assert.Equal(t, recomputed, km)
	}
}

func TestSelect_MonotonicInclusion(t *testing.T) {
	records := []antenna.Record{
		stationAt("CLARO", 4),
		stationAt("VIVO", 1),
		stationAt("TIM", 8),
		stationAt("CLARO", 2),
		stationAt("VIVO", 16),
	}

	result := Select(records, testRef, 3, 2)

	// The buckets returned must be exactly the k smallest distinct distances.
	var all []float64
	for _, r := range Rank(records, testRef) {
		all = append(all, r.DistanceKM)
	}
	sort.Float64s(all)
	assert.Equal(t, all[:len(result)], result.Distances())
}

func TestSelect_MergesUniqueValuesPerOperator(t *testing.T) {
	a := stationAt("CLARO", 1)
	b := stationAt("CLARO", 1)
	b.FrequencyMHz = 1800
	b.Technology = "GSM"
	c := stationAt("CLARO", 1) // full duplicate of a

	result := Select([]antenna.Record{a, b, c}, testRef, 1, 1)

	require.Len(t, result, 1)
	info := result[1].Operators["CLARO"]
	require.NotNil(t, info)
	assert.ElementsMatch(t, []float64{2600, 1800}, info.Frequencies)
	assert.ElementsMatch(t, []string{"LTE", "GSM"}, info.Technologies)
	assert.Equal(t, []float64{120}, info.Azimuths)
	assert.Equal(t, []float64{45}, info.Heights)
}

func TestRank_OrderedByDistanceThenOperator(t *testing.T) {
	records := []antenna.Record{
		stationAt("VIVO", 2),
		stationAt("CLARO", 2),
		stationAt("TIM", 1),
	}

	ranked := Rank(records, testRef)

	require.Len(t, ranked, 3)
	assert.Equal(t, "TIM", ranked[0].Operator)
	assert.Equal(t, 1.0, ranked[0].DistanceKM)
	assert.Equal(t, "CLARO", ranked[1].Operator)
	assert.Equal(t, "VIVO", ranked[2].Operator)
}
