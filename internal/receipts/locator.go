// =============================================================================
// Expense to Invoice Converter - Receipt File Locator
// =============================================================================
//
// Given the invoice record set with placeholder image references, the
// locator searches the configured candidate directories for files whose
// name contains each record's token, and for every match:
//
//   - moves the file into the output directory
//   - renames it to <seq>_<token>_<suffix>.pdf
//   - converts it to PDF if it is an image; PDFs are moved as-is
//
// SEARCH POLICY:
//   All candidate directories are searched and matches are scored by name
//   quality, never by modification-time windows: a receipt downloaded
//   hours late or out of order still matches. Tie-break is exact stem over
//   separator-bounded prefix over bare prefix over substring, then newest
//   mtime. In the output directory only the record's own staged downloads
//   (%04d_ sequence prefix) are candidates; files placed or staged for
//   other records are never touched, even when truncated tokens collide.
//
// IDEMPOTENCE:
//   A record whose target directory already contains a correctly named
//   file is skipped untouched, so re-running the locator on a resolved set
//   changes nothing.
//
// =============================================================================

package receipts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blm-finops/expense-invoice-converter/internal/config"
	"github.com/blm-finops/expense-invoice-converter/internal/types"
	"github.com/blm-finops/expense-invoice-converter/pkg/utils"
)

// receiptExtensions are the file types browsers save receipts as.
var receiptExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".pdf":  true,
}

// =============================================================================
// LOCATOR
// =============================================================================

// Locator finds, relocates and converts receipt files for invoice records.
type Locator struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewLocator creates a receipt locator.
func NewLocator(cfg *config.Config, log zerolog.Logger) *Locator {
	return &Locator{cfg: cfg, log: log}
}

// Summary is the outcome of one locator pass. Nothing in it is fatal;
// unmatched records simply keep their placeholder.
type Summary struct {
	// Resolved counts records newly matched to a placed file this pass.
	Resolved int

	// AlreadyPlaced counts records whose file was placed by an earlier
	// pass and skipped.
	AlreadyPlaced int

	// Missing counts records with no candidate file anywhere.
	Missing int

	// MissingTokens lists the tokens that matched nothing.
	MissingTokens []string

	// ConversionFailures counts matched files that could not be converted.
	// Their records keep the placeholder and the files stay at the source.
	ConversionFailures int

	// Failures holds the per-file conversion errors.
	Failures []error
}

// Run resolves receipt files for the record set, mutating each record's
// image file spec in place. Only the image reference field is touched.
func (l *Locator) Run(records []types.InvoiceRecord) Summary {
	var summary Summary

	for i := range records {
		rec := &records[i]
		token := rec.Token()

		// Idempotence: an earlier pass may already have placed this
		// record's file, whether or not the record set we were handed
		// knows about it.
		if placed := l.findPlaced(rec.Sequence, token); placed != "" {
			rec.ImageFileSpec = filepath.Base(placed)
			summary.AlreadyPlaced++
			continue
		}

		match := l.findBestMatch(rec.Sequence, token)
		if match == "" {
			summary.Missing++
			summary.MissingTokens = append(summary.MissingTokens, token)
			l.log.Debug().Str("token", token).Msg("no receipt file found")
			continue
		}

		target := placedName(rec.Sequence, token)
		targetPath := filepath.Join(l.cfg.OutputDir, target)

		if err := l.place(match, targetPath); err != nil {
			summary.ConversionFailures++
			summary.Failures = append(summary.Failures, err)
			l.log.Warn().Err(err).Str("source", match).Msg("receipt could not be placed")
			continue
		}

		rec.ImageFileSpec = target
		summary.Resolved++
		l.log.Info().Str("source", filepath.Base(match)).Str("placed", target).
			Msg("receipt resolved")
	}

	l.log.Info().
		Int("resolved", summary.Resolved).
		Int("already_placed", summary.AlreadyPlaced).
		Int("missing", summary.Missing).
		Int("conversion_failures", summary.ConversionFailures).
		Msg("receipt location pass complete")

	return summary
}

// place moves a matched file to its target path, converting images to PDF.
// PDFs move without re-encoding. On conversion failure the source file is
// left where it was found.
func (l *Locator) place(srcPath, targetPath string) error {
	if strings.EqualFold(filepath.Ext(srcPath), ".pdf") {
		return utils.MoveFile(srcPath, targetPath)
	}

	if err := ConvertToPDF(srcPath, targetPath); err != nil {
		return err
	}

	// Conversion succeeded; complete the move by dropping the source.
	if err := os.Remove(srcPath); err != nil {
		l.log.Warn().Err(err).Str("source", srcPath).
			Msg("converted receipt source could not be removed")
	}
	return nil
}

// =============================================================================
// MATCHING
// =============================================================================

// placedName builds the output file name for a resolved receipt. The uuid
// suffix keeps repeated resolutions of re-downloaded files from colliding.
func placedName(sequence int, token string) string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%04d_%s_%s.pdf", sequence, token, suffix)
}

// findPlaced returns an already-placed file for a record, or "".
func (l *Locator) findPlaced(sequence int, token string) string {
	pattern := filepath.Join(l.cfg.OutputDir, fmt.Sprintf("%04d_%s_*.pdf", sequence, token))
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// candidate is a scored potential match for a token.
type candidate struct {
	path    string
	score   int
	modTime time.Time
}

// findBestMatch scans every search directory plus the output staging area
// for the best-scoring file containing the token.
func (l *Locator) findBestMatch(sequence int, token string) string {
	dirs := append([]string{}, l.cfg.ReceiptSearchDirs...)
	dirs = append(dirs, l.cfg.OutputDir)

	stagedPrefix := fmt.Sprintf("%04d_", sequence)

	var best candidate
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			// Missing search directories just yield no matches.
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			name := entry.Name()
			if !receiptExtensions[strings.ToLower(filepath.Ext(name))] {
				continue
			}

			// The output directory holds already-placed receipts and other
			// records' staged downloads alongside this record's. Truncated
			// tokens can collide across records, so only files staged under
			// this record's own sequence prefix are candidates there.
			if dir == l.cfg.OutputDir && !strings.HasPrefix(name, stagedPrefix) {
				continue
			}

			score, ok := matchScore(name, token)
			if !ok {
				continue
			}

			path := filepath.Join(dir, name)
			mod := utils.FileModTime(path)
			if best.path == "" || score > best.score ||
				(score == best.score && mod.After(best.modTime)) {
				best = candidate{path: path, score: score, modTime: mod}
			}
		}
	}

	return best.path
}

// matchScore rates how well a file name matches a token. Higher is better:
// 3 for an exact stem match, 2 for a prefix bounded by a separator, 1 for a
// bare prefix, 0 for a substring anywhere. Comparison is case-insensitive.
// The separator tier exists because an id character right after the token
// usually means the file belongs to a record with a longer reference id.
func matchScore(fileName, token string) (int, bool) {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	stem = strings.ToLower(stem)
	token = strings.ToLower(token)

	switch {
	case stem == token:
		return 3, true
	case strings.HasPrefix(stem, token):
		if isIDChar(stem[len(token)]) {
			return 1, true
		}
		return 2, true
	case strings.Contains(stem, token):
		return 0, true
	default:
		return 0, false
	}
}

// isIDChar reports whether a lowercased byte could continue a reference id.
func isIDChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
