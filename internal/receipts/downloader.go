// =============================================================================
// Expense to Invoice Converter - Receipt Download Helpers
// =============================================================================
//
// Receipts live behind the expense portal. Two helper paths exist:
//
//   1. Direct download: attempted per record via HTTP. Works for publicly
//      reachable URLs; the portal's session-gated URLs fail soft.
//   2. Manual fallback: a URL list with instructions plus a platform script
//      that opens every URL in the browser, where the user's session is
//      already logged in. The user saves the files to their download
//      folder and the locator picks them up from there.
//
// Downloaded files land in the output staging area named with the record's
// token so the locator matches them without heuristics.
//
// Nothing here is fatal: a failed download just leaves the record for the
// manual path.
//
// =============================================================================

package receipts

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/blm-finops/expense-invoice-converter/internal/config"
	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

// downloadTimeout bounds each receipt fetch.
const downloadTimeout = 30 * time.Second

// =============================================================================
// DOWNLOADER
// =============================================================================

// Downloader fetches receipt files and generates the manual-download
// helper artifacts.
type Downloader struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *resty.Client
}

// NewDownloader creates a receipt downloader.
func NewDownloader(cfg *config.Config, log zerolog.Logger) *Downloader {
	return &Downloader{
		cfg: cfg,
		log: log,
		client: resty.New().
			SetTimeout(downloadTimeout).
			SetRetryCount(2),
	}
}

// DownloadSummary reports the outcome of a download pass.
type DownloadSummary struct {
	Attempted int
	Saved     int
	Failed    int
}

// Download fetches every record's receipt URL into the output staging
// area. Failures are logged and counted, never propagated: the manual
// fallback covers them.
func (d *Downloader) Download(records []types.InvoiceRecord) DownloadSummary {
	var summary DownloadSummary

	for i := range records {
		rec := &records[i]
		if rec.ReceiptURL == "" {
			continue
		}
		summary.Attempted++

		target := filepath.Join(d.cfg.OutputDir, stagedName(rec))
		resp, err := d.client.R().SetOutput(target).Get(rec.ReceiptURL)
		if err != nil || resp.IsError() {
			summary.Failed++
			os.Remove(target) // drop the empty/partial output
			d.log.Debug().Str("url", rec.ReceiptURL).Err(err).
				Msg("receipt download failed; deferring to manual download")
			continue
		}

		summary.Saved++
		d.log.Info().Str("file", filepath.Base(target)).Msg("receipt downloaded")
	}

	d.log.Info().
		Int("attempted", summary.Attempted).
		Int("saved", summary.Saved).
		Int("failed", summary.Failed).
		Msg("receipt download pass complete")

	return summary
}

// stagedName builds the staging file name for a downloaded receipt:
// sequence and token up front so the locator matches it directly, original
// base name preserved for the extension.
func stagedName(rec *types.InvoiceRecord) string {
	base := "receipt.png"
	if u, err := url.Parse(rec.ReceiptURL); err == nil {
		if b := path.Base(u.Path); b != "" && b != "/" && b != "." {
			base = b
		}
	}
	return fmt.Sprintf("%04d_%s_%s", rec.Sequence, rec.Token(), base)
}

// =============================================================================
// MANUAL DOWNLOAD ARTIFACTS
// =============================================================================

// GenerateArtifacts writes the receipt URL list and the browser opener
// script for records that carry a receipt URL. Returns the written paths;
// both are empty when no record has a URL.
func (d *Downloader) GenerateArtifacts(records []types.InvoiceRecord) (urlsPath, scriptPath string, err error) {
	withURLs := make([]*types.InvoiceRecord, 0, len(records))
	for i := range records {
		if records[i].ReceiptURL != "" {
			withURLs = append(withURLs, &records[i])
		}
	}
	if len(withURLs) == 0 {
		return "", "", nil
	}

	urlsPath = filepath.Join(d.cfg.OutputDir, "receipt_image_urls.txt")
	if err := d.writeURLList(urlsPath, withURLs); err != nil {
		return "", "", err
	}

	scriptPath = filepath.Join(d.cfg.OutputDir, openerScriptName())
	if err := d.writeOpenerScript(scriptPath, withURLs); err != nil {
		return urlsPath, "", err
	}

	return urlsPath, scriptPath, nil
}

// writeURLList writes the instructional URL list.
func (d *Downloader) writeURLList(path string, records []*types.InvoiceRecord) error {
	var b strings.Builder

	b.WriteString("RECEIPT IMAGE URLS FOR MANUAL DOWNLOAD\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Make sure you are logged into the expense portal in your browser\n")
	b.WriteString("2. Open each URL (or run the opener script in this folder)\n")
	b.WriteString("3. Save each file to your Downloads folder\n")
	b.WriteString("4. Run 'receipts' to match, rename and convert the files\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, rec := range records {
		fmt.Fprintf(&b, "Invoice %d (%s):\n", rec.Sequence, rec.InvoiceNumber)
		fmt.Fprintf(&b, "Description: %s\n", rec.Description)
		fmt.Fprintf(&b, "Amount: $%s\n", rec.InvoiceAmount.StringFixed(2))
		fmt.Fprintf(&b, "URL: %s\n", rec.ReceiptURL)
		fmt.Fprintf(&b, "Suggested name: %s\n", stagedName(rec))
		b.WriteString(strings.Repeat("-", 40) + "\n\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

// openerScriptName picks the script flavor for the current platform.
func openerScriptName() string {
	if runtime.GOOS == "windows" {
		return "open_receipt_urls.bat"
	}
	return "open_receipt_urls.sh"
}

// writeOpenerScript writes a script that opens every receipt URL in the
// default browser, pausing between opens so the browser keeps up.
func (d *Downloader) writeOpenerScript(path string, records []*types.InvoiceRecord) error {
	var b strings.Builder

	switch runtime.GOOS {
	case "windows":
		b.WriteString("@echo off\n")
		b.WriteString("echo Opening receipt URLs in browser...\n")
		for _, rec := range records {
			fmt.Fprintf(&b, "start \"\" \"%s\"\n", rec.ReceiptURL)
			b.WriteString("timeout /t 2 /nobreak > nul\n")
		}
	default:
		open := "xdg-open"
		if runtime.GOOS == "darwin" {
			open = "open"
		}
		b.WriteString("#!/bin/sh\n")
		b.WriteString("echo 'Opening receipt URLs in browser...'\n")
		for _, rec := range records {
			fmt.Fprintf(&b, "%s '%s'\n", open, rec.ReceiptURL)
			b.WriteString("sleep 2\n")
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0755)
}
