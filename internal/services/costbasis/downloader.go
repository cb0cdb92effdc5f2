package costbasis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dkochetov/cryptofolio/pkg/retrier"
)

const sheetExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s"

// Downloader refreshes the local cost-basis CSV from its published
// spreadsheet export.
type Downloader struct {
	sheetID string
	gid     string
	dest    string
	http    *http.Client
	retry   *retrier.Retrier
	logger  *zap.Logger
}

// NewDownloader creates a downloader writing the export of the given sheet
// tab to dest.
func NewDownloader(sheetID, gid, dest string, logger *zap.Logger) *Downloader {
	return &Downloader{
		sheetID: sheetID,
		gid:     gid,
		dest:    dest,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry: retrier.New(
			retrier.WithMaxRetries(3),
			retrier.WithInitialInterval(2*time.Second),
		),
		logger: logger.Named("sheet"),
	}
}

// Download fetches the CSV export and replaces the destination file. Transient
// fetch failures are retried with backoff before giving up.
func (d *Downloader) Download(ctx context.Context) error {
	if d.sheetID == "" {
		return errors.New("spreadsheet id is not configured")
	}

	url := fmt.Sprintf(sheetExportURL, d.sheetID, d.gid)
	err := d.retry.Do(ctx, func(ctx context.Context) error {
		return d.fetch(ctx, url)
	})
	if err != nil {
		return errors.Wrap(err, "download cost-basis sheet")
	}

	d.logger.Info("cost-basis sheet downloaded", zap.String("dest", d.dest))
	return nil
}

func (d *Downloader) fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build sheet request")
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "sheet request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("sheet export failed: status %d", resp.StatusCode)
	}

	// Write to a temp file first so a failed download never truncates the
	// previous good copy.
	tmp, err := os.CreateTemp(filepath.Dir(d.dest), "costbasis-*.csv")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write sheet export")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	return errors.Wrap(os.Rename(tmp.Name(), d.dest), "replace cost-basis file")
}
