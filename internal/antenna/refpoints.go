package antenna

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/fetcher"
	"github.com/rfsurvey/antenna-cli/internal/geo"
)

// LoadReferencePoints reads reference coordinates from a `;`-delimited CSV
// or an XLSX sheet. Each data row holds latitude and longitude in the first
// two columns, possibly with comma decimal separators. Rows that don't parse
// as a coordinate pair (headers included) are skipped.
func LoadReferencePoints(ctx context.Context, path string) ([]geo.Point, error) {
	var rows [][]string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		parsed, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "antenna: read reference sheet %s", path)
		}
		rows = parsed
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "antenna: open reference csv %s", path)
		}
		defer f.Close() //nolint:errcheck

		rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
			Delimiter: ';',
			TrimSpace: true,
		})
		for row := range rowCh {
			rows = append(rows, row)
		}
		if err := <-errCh; err != nil {
			return nil, eris.Wrapf(err, "antenna: read reference csv %s", path)
		}
	}

	var points []geo.Point
	var skipped int

	for _, row := range rows {
		if len(row) < 2 {
			skipped++
			continue
		}
		lat, latErr := ParseDecimal(row[0])
		lon, lonErr := ParseDecimal(row[1])
		if latErr != nil || lonErr != nil {
			skipped++
			continue
		}
		points = append(points, geo.Point{Lat: lat, Lon: lon})
	}

	if len(points) == 0 {
		return nil, eris.Errorf("antenna: no reference points found in %s", path)
	}

	zap.L().Info("loaded reference points",
		zap.String("path", path),
		zap.Int("points", len(points)),
		zap.Int("skipped", skipped),
	)

	return points, nil
}
