// Package antenna holds the station data model and the loaders that ingest
// Anatel licensing exports and reference-point sheets.
package antenna

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rfsurvey/antenna-cli/internal/geo"
)

// Record is a single licensed station row from the Anatel export.
// Latitude and longitude are rounded to 5 decimal places at parse time.
type Record struct {
	Operator     string  `json:"operator"`
	Technology   string  `json:"technology"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	Azimuth      float64 `json:"azimuth"`
	HeightM      float64 `json:"height_m"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Location returns the station coordinates as a geo.Point.
func (r Record) Location() geo.Point {
	return geo.Point{Lat: r.Latitude, Lon: r.Longitude}
}

// ParseDecimal parses a decimal number that may use a comma as the decimal
// separator, as the portal exports do for Brazilian locale data.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("antenna: empty numeric field")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "antenna: parse decimal %q", s)
	}
	return v, nil
}

// parseCoordinate parses a locale-formatted coordinate and rounds it to
// 5 decimal places.
func parseCoordinate(s string) (float64, error) {
	v, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return geo.Round(v, 5), nil
}
