// Package portal downloads antenna licensing exports from the Anatel
// public portal and keeps a local per-state copy of the station CSV.
package portal

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/fetcher"
	"github.com/rfsurvey/antenna-cli/internal/store"
)

// DefaultBaseURL is the public licensing view of the Anatel portal.
const DefaultBaseURL = "https://sistemas.anatel.gov.br/se/public/view/b/licenciamento"

// Client downloads per-state licensing exports. The portal delivers a ZIP
// containing a single CSV; the client extracts it into the data directory
// and records every successful sync in the store.
type Client struct {
	fetcher fetcher.Fetcher
	store   *store.Store
	baseURL string
	dataDir string
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets a custom portal base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a portal client writing into dataDir.
func NewClient(f fetcher.Fetcher, s *store.Store, dataDir string, opts ...Option) *Client {
	c := &Client{
		fetcher: f,
		store:   s,
		baseURL: DefaultBaseURL,
		dataDir: dataDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExportURL builds the CSV export URL for a state. fc_8 is the portal's
// state filter field.
func (c *Client) ExportURL(uf string) string {
	return fmt.Sprintf("%s?fc_8=%s&export=csv", c.baseURL, url.QueryEscape(uf))
}

// CSVPath is where the extracted station CSV for a state lives under a
// data directory.
func CSVPath(dataDir, uf string) string {
	return filepath.Join(dataDir, fmt.Sprintf("antennas-%s.csv", uf))
}

// CSVPath returns where the extracted station CSV for a state lives.
func (c *Client) CSVPath(uf string) string {
	return CSVPath(c.dataDir, uf)
}

// ValidUF reports whether s looks like a two-letter state code.
func ValidUF(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// SyncState downloads the export for one state if the portal's copy changed
// since the last sync, extracts the CSV, and records the result. When the
// export is unchanged, the previous sync record is returned as-is.
func (c *Client) SyncState(ctx context.Context, uf string) (*store.SyncRecord, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if !ValidUF(uf) {
		return nil, eris.Errorf("portal: invalid state code %q", uf)
	}

	log := zap.L().With(zap.String("state", uf))

	var etag string
	last, err := c.store.LastSync(ctx, uf)
	if err != nil {
		return nil, eris.Wrap(err, "portal: load last sync")
	}
	if last != nil {
		etag = last.ETag
	}

	exportURL := c.ExportURL(uf)
	log.Info("checking portal export", zap.String("url", exportURL))

	body, newETag, changed, err := c.fetcher.DownloadIfChanged(ctx, exportURL, etag)
	if err != nil {
		return nil, eris.Wrapf(err, "portal: download export for %s", uf)
	}
	if !changed {
		log.Info("export unchanged, keeping local copy", zap.String("etag", etag))
		return last, nil
	}
	defer body.Close() //nolint:errcheck

	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "portal: create data dir")
	}

	zipPath, err := c.saveZip(body, uf)
	if err != nil {
		return nil, err
	}
	defer os.Remove(zipPath) //nolint:errcheck

	csvPath, err := c.extractCSV(zipPath, uf)
	if err != nil {
		return nil, err
	}

	rows, err := countDataRows(csvPath)
	if err != nil {
		return nil, eris.Wrapf(err, "portal: count rows in %s", csvPath)
	}

	rec, err := c.store.RecordSync(ctx, uf, newETag, csvPath, rows)
	if err != nil {
		return nil, eris.Wrap(err, "portal: record sync")
	}

	log.Info("synced portal export",
		zap.String("path", csvPath),
		zap.Int64("rows", rows),
		zap.String("etag", newETag),
	)

	return rec, nil
}

func (c *Client) saveZip(body io.Reader, uf string) (string, error) {
	f, err := os.CreateTemp(c.dataDir, fmt.Sprintf("export-%s-*.zip", uf))
	if err != nil {
		return "", eris.Wrap(err, "portal: create temp zip")
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()           //nolint:errcheck
		os.Remove(f.Name()) //nolint:errcheck
		return "", eris.Wrap(err, "portal: save export zip")
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrap(err, "portal: close export zip")
	}
	return f.Name(), nil
}

// extractCSV unpacks the single-file export and moves the CSV to its
// stable per-state name, replacing any previous copy.
func (c *Client) extractCSV(zipPath, uf string) (string, error) {
	tmpDir, err := os.MkdirTemp(c.dataDir, "extract-*")
	if err != nil {
		return "", eris.Wrap(err, "portal: create extract dir")
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	extracted, err := fetcher.ExtractZIPSingle(zipPath, tmpDir)
	if err != nil {
		return "", eris.Wrapf(err, "portal: extract export for %s", uf)
	}

	dest := c.CSVPath(uf)
	if err := os.Rename(extracted, dest); err != nil {
		return "", eris.Wrapf(err, "portal: move %s into place", extracted)
	}
	return dest, nil
}

// countDataRows counts non-empty lines after the header. The portal export
// never embeds newlines inside fields, so a line count is enough.
func countDataRows(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck

	var rows int64
	buf := make([]byte, 64*1024)
	pending := false
	for {
		n, err := f.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				if pending {
					rows++
				}
				pending = false
			} else if b != '\r' {
				pending = true
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if pending {
		rows++
	}
	if rows > 0 {
		rows-- // header
	}
	return rows, nil
}
