package selector

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

// OperatorInfo bundles the unique field values observed for one operator
// within one distance bucket. JSON keys follow the portal column vocabulary
// so reports stay comparable with the raw export.
type OperatorInfo struct {
	Frequencies  []float64 `json:"Freq"`
	Technologies []string  `json:"Tecnologia"`
	Azimuths     []float64 `json:"Azimute"`
	Heights      []float64 `json:"Altura"`
}

// Bucket holds every operator sharing one rounded distance from the
// reference point, plus a representative coordinate for the bucket.
type Bucket struct {
	Location  geo.Point
	Operators map[string]*OperatorInfo
}

// MarshalJSON renders the bucket as {"lat/lon": [lat, lon], "<operator>": {...}}.
func (b *Bucket) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Operators)+1)
	out["lat/lon"] = [2]float64{b.Location.Lat, b.Location.Lon}
	for name, info := range b.Operators {
		out[name] = info
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the bucket shape written by MarshalJSON.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.Operators = make(map[string]*OperatorInfo)
	for key, val := range raw {
		if key == "lat/lon" {
			var loc [2]float64
			if err := json.Unmarshal(val, &loc); err != nil {
				return err
			}
			b.Location = geo.Point{Lat: loc[0], Lon: loc[1]}
			continue
		}
		var info OperatorInfo
		if err := json.Unmarshal(val, &info); err != nil {
			return err
		}
		b.Operators[key] = &info
	}
	return nil
}

// Result maps a rounded distance in kilometers to its bucket. Bucket
// identity is defined by the distance key, not insertion order.
type Result map[float64]*Bucket

// FormatDistance renders a distance key the way Result serializes it.
func FormatDistance(km float64) string {
	return strconv.FormatFloat(km, 'f', 2, 64)
}

// MarshalJSON renders the result as an object keyed by stringified
// 2-decimal distance.
func (res Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]*Bucket, len(res))
	for km, bucket := range res {
		out[FormatDistance(km)] = bucket
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the object shape written by MarshalJSON.
func (res *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]*Bucket
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := make(Result, len(raw))
	for key, bucket := range raw {
		km, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return err
		}
		parsed[km] = bucket
	}
	*res = parsed
	return nil
}

// Distances returns the bucket keys in ascending order.
func (res Result) Distances() []float64 {
	keys := make([]float64, 0, len(res))
	for km := range res {
		keys = append(keys, km)
	}
	sort.Float64s(keys)
	return keys
}

// OperatorNames returns the distinct operator names across all buckets,
// sorted for stable output.
func (res Result) OperatorNames() []string {
	seen := make(map[string]struct{})
	for _, bucket := range res {
		for name := range bucket.Operators {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
