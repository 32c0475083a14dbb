// Package report writes per-point analysis results to disk: the antenna
// selection as output.json and the terrain profiles as profiles.json,
// grouped in one directory per reference point.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/elevation"
	"github.com/rfsurvey/antenna-cli/internal/geo"
	"github.com/rfsurvey/antenna-cli/internal/selector"
)

// Target is one selected antenna site: a representative location plus the
// known installation heights per operator. Profiles are fetched toward
// these locations.
type Target struct {
	DistanceKM float64              `json:"distance_km"`
	Location   geo.Point            `json:"location"`
	Heights    map[string][]float64 `json:"heights_m"`
}

// ExtractTargets flattens a selection result into profile targets, ordered
// by distance.
func ExtractTargets(res selector.Result) []Target {
	targets := make([]Target, 0, len(res))
	for _, d := range res.Distances() {
		bucket := res[d]
		heights := make(map[string][]float64, len(bucket.Operators))
		for name, info := range bucket.Operators {
			heights[name] = info.Heights
		}
		targets = append(targets, Target{
			DistanceKM: d,
			Location:   bucket.Location,
			Heights:    heights,
		})
	}
	return targets
}

// Writer persists analysis output under a base directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a Writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// PointDir returns the output directory for one reference point.
func (w *Writer) PointDir(ref geo.Point) string {
	name := "point_" + formatCoord(ref.Lat) + "_" + formatCoord(ref.Lon)
	return filepath.Join(w.outputDir, name)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSelection writes the selection result as output.json.
func (w *Writer) WriteSelection(ref geo.Point, res selector.Result) (string, error) {
	return w.writeJSON(ref, "output.json", res)
}

// WriteProfiles writes the elevation profiles as profiles.json.
func (w *Writer) WriteProfiles(ref geo.Point, profiles []elevation.Profile) (string, error) {
	return w.writeJSON(ref, "profiles.json", profiles)
}

func (w *Writer) writeJSON(ref geo.Point, name string, data any) (string, error) {
	dir := w.PointDir(ref)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create %s", dir)
	}

	payload, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", eris.Wrapf(err, "report: marshal %s", name)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", eris.Wrapf(err, "report: write %s", path)
	}

	zap.L().Debug("wrote report file", zap.String("path", path))
	return path, nil
}
