package antenna

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/fetcher"
)

// Column names in the Anatel licensing export.
const (
	colOperator   = "NomeEntidade"
	colTechnology = "Tecnologia"
	colFrequency  = "FreqTxMHz"
	colAzimuth    = "Azimute"
	colLatitude   = "Latitude"
	colLongitude  = "Longitude"
	colHeight     = "AlturaAntena"
)

// LoadOptions configures station CSV ingestion.
type LoadOptions struct {
	Delimiter rune              // default ','
	Encoding  string            // IANA charset name, empty for UTF-8
	Aliases   map[string]string // optional operator name normalization
}

// LoadStations reads an Anatel licensing CSV and returns the parsed station
// records. Rows with unparseable coordinates or a missing technology are
// dropped; other numeric fields default to zero when malformed.
func LoadStations(ctx context.Context, path string, opts LoadOptions) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "antenna: open stations csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
		Delimiter:  opts.Delimiter,
		Encoding:   opts.Encoding,
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	header, ok := <-headerCh
	if !ok {
		if err := <-errCh; err != nil {
			return nil, eris.Wrap(err, "antenna: read header")
		}
		return nil, eris.Errorf("antenna: %s has no header row", path)
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}
	for _, col := range []string{colOperator, colTechnology, colLatitude, colLongitude} {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("antenna: missing required column %q in %s", col, path)
		}
	}

	var records []Record
	var dropped int

	for row := range rowCh {
		rec, ok := parseRow(row, colIdx, opts.Aliases)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	if err := <-errCh; err != nil {
		return records, eris.Wrap(err, "antenna: read stations csv")
	}

	zap.L().Info("loaded stations",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("dropped", dropped),
	)

	return records, nil
}

// parseRow converts a CSV row into a Record. It returns false when the row
// must be dropped (bad coordinates or missing technology).
func parseRow(row []string, colIdx map[string]int, aliases map[string]string) (Record, bool) {
	tech := getCol(row, colIdx, colTechnology)
	if tech == "" {
		return Record{}, false
	}

	lat, err := parseCoordinate(getCol(row, colIdx, colLatitude))
	if err != nil {
		return Record{}, false
	}
	lon, err := parseCoordinate(getCol(row, colIdx, colLongitude))
	if err != nil {
		return Record{}, false
	}

	operator := getCol(row, colIdx, colOperator)
	if canonical, ok := aliases[operator]; ok {
		operator = canonical
	}

	return Record{
		Operator:     operator,
		Technology:   tech,
		FrequencyMHz: lenientDecimal(getCol(row, colIdx, colFrequency)),
		Azimuth:      lenientDecimal(getCol(row, colIdx, colAzimuth)),
		HeightM:      lenientDecimal(getCol(row, colIdx, colHeight)),
		Latitude:     lat,
		Longitude:    lon,
	}, true
}

// lenientDecimal parses a decimal field, returning 0 for malformed values.
func lenientDecimal(s string) float64 {
	v, err := ParseDecimal(s)
	if err != nil {
		return 0
	}
	return v
}

// getCol safely retrieves a column value from a CSV row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
