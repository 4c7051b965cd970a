package receipts

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blm-finops/expense-invoice-converter/internal/config"
	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

// writePNG writes a small valid PNG at path.
func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// testLocator builds a locator with a temp downloads dir and output dir.
func testLocator(t *testing.T) (*Locator, string, string) {
	t.Helper()
	downloads := t.TempDir()
	output := t.TempDir()
	cfg := &config.Config{
		OutputDir:         output,
		ReceiptSearchDirs: []string{downloads},
	}
	return NewLocator(cfg, zerolog.Nop()), downloads, output
}

// record builds an invoice record with a placeholder image reference.
// Its token is the hash input base truncated to eight characters.
func record(sequence int, hashInput string) types.InvoiceRecord {
	return types.InvoiceRecord{
		Sequence:      sequence,
		HashInput:     hashInput,
		ImageFileSpec: types.ImagePlaceholder,
	}
}

func TestLocatorConvertsAndPlacesImage(t *testing.T) {
	locator, downloads, output := testLocator(t)
	source := filepath.Join(downloads, "TXN12345_receipt.png")
	writePNG(t, source)

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	summary := locator.Run(records)

	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 0, summary.Missing)
	assert.Regexp(t, `^0001_TXN12345_[0-9a-f]{8}\.pdf$`, records[0].ImageFileSpec)

	// Placed as PDF in the output dir; source removed after conversion.
	placed := filepath.Join(output, records[0].ImageFileSpec)
	_, err := os.Stat(placed)
	require.NoError(t, err)
	_, err = os.Stat(source)
	assert.True(t, os.IsNotExist(err))
}

func TestLocatorMovesPDFWithoutConversion(t *testing.T) {
	locator, downloads, output := testLocator(t)
	content := []byte("%PDF-1.4 fake receipt")
	source := filepath.Join(downloads, "TXN12345.pdf")
	require.NoError(t, os.WriteFile(source, content, 0644))

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	summary := locator.Run(records)

	require.Equal(t, 1, summary.Resolved)
	placed, err := os.ReadFile(filepath.Join(output, records[0].ImageFileSpec))
	require.NoError(t, err)
	assert.Equal(t, content, placed)

	_, err = os.Stat(source)
	assert.True(t, os.IsNotExist(err))
}

func TestLocatorIsIdempotent(t *testing.T) {
	locator, downloads, output := testLocator(t)
	writePNG(t, filepath.Join(downloads, "TXN12345.png"))

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	first := locator.Run(records)
	require.Equal(t, 1, first.Resolved)
	placedSpec := records[0].ImageFileSpec

	// Second pass with no new files: the placed file is detected, nothing
	// moves, the reference is unchanged.
	second := locator.Run(records)
	assert.Equal(t, 0, second.Resolved)
	assert.Equal(t, 1, second.AlreadyPlaced)
	assert.Equal(t, placedSpec, records[0].ImageFileSpec)

	entries, err := os.ReadDir(output)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocatorDetectsPlacedFileOnFreshRecordSet(t *testing.T) {
	// Simulates re-reading the CSV from before the first locator pass: the
	// record still carries the placeholder but the file is already placed.
	locator, downloads, _ := testLocator(t)
	writePNG(t, filepath.Join(downloads, "TXN12345.png"))

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	locator.Run(records)
	placedSpec := records[0].ImageFileSpec

	fresh := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	summary := locator.Run(fresh)

	assert.Equal(t, 1, summary.AlreadyPlaced)
	assert.Equal(t, placedSpec, fresh[0].ImageFileSpec)
}

func TestLocatorKeepsPlaceholderWhenNothingMatches(t *testing.T) {
	locator, downloads, _ := testLocator(t)
	writePNG(t, filepath.Join(downloads, "unrelated_receipt.png"))

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	summary := locator.Run(records)

	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, []string{"TXN12345"}, summary.MissingTokens)
	assert.Equal(t, types.ImagePlaceholder, records[0].ImageFileSpec)
}

func TestLocatorLeavesSourceOnConversionFailure(t *testing.T) {
	locator, downloads, _ := testLocator(t)
	source := filepath.Join(downloads, "TXN12345.png")
	require.NoError(t, os.WriteFile(source, []byte("not an image"), 0644))

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	summary := locator.Run(records)

	assert.Equal(t, 1, summary.ConversionFailures)
	require.Len(t, summary.Failures, 1)
	var convErr *types.ConversionError
	assert.ErrorAs(t, summary.Failures[0], &convErr)

	// The bad file stays where it was and the record keeps its placeholder.
	_, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, types.ImagePlaceholder, records[0].ImageFileSpec)
}

func TestLocatorPrefersExactStemMatch(t *testing.T) {
	locator, downloads, _ := testLocator(t)
	exact := filepath.Join(downloads, "TXN12345.png")
	substring := filepath.Join(downloads, "scan_of_TXN12345_old.png")
	writePNG(t, exact)
	writePNG(t, substring)

	// Make the weaker match newer; name quality must still win.
	info, err := os.Stat(exact)
	require.NoError(t, err)
	newer := info.ModTime().Add(time.Hour)
	require.NoError(t, os.Chtimes(substring, newer, newer))

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	summary := locator.Run(records)

	require.Equal(t, 1, summary.Resolved)
	_, err = os.Stat(exact)
	assert.True(t, os.IsNotExist(err), "exact-stem match should have been consumed")
	_, err = os.Stat(substring)
	assert.NoError(t, err, "weaker match should be untouched")
}

func TestLocatorSearchesOutputStagingArea(t *testing.T) {
	// Downloaded receipts are staged into the output dir; the locator picks
	// them up from there without any extra search dir.
	locator, _, output := testLocator(t)
	locator.cfg.ReceiptSearchDirs = nil
	writePNG(t, filepath.Join(output, "0001_TXN12345_receipt.png"))

	records := []types.InvoiceRecord{record(1, "TXN123456,2024-01-15")}
	summary := locator.Run(records)

	assert.Equal(t, 1, summary.Resolved)
	assert.Regexp(t, `\.pdf$`, records[0].ImageFileSpec)
}

func TestLocatorNeverMovesAnotherRecordsPlacedFile(t *testing.T) {
	// Sequential reference ids share a truncated token ("TXN123456" and
	// "TXN123457" both yield "TXN12345"). With one download present, only
	// one record may claim it; the placed file must survive the pass and
	// subsequent passes unchanged.
	locator, downloads, output := testLocator(t)
	writePNG(t, filepath.Join(downloads, "TXN123456_receipt.png"))

	records := []types.InvoiceRecord{
		record(1, "TXN123456,2024-01-15"),
		record(2, "TXN123457,2024-01-15"),
	}

	first := locator.Run(records)
	assert.Equal(t, 1, first.Resolved)
	assert.Equal(t, 1, first.Missing)

	placed := filepath.Join(output, records[0].ImageFileSpec)
	_, err := os.Stat(placed)
	require.NoError(t, err, "record 1's placed file must still exist")
	assert.Equal(t, types.ImagePlaceholder, records[1].ImageFileSpec)

	second := locator.Run(records)
	assert.Equal(t, 0, second.Resolved)
	assert.Equal(t, 1, second.AlreadyPlaced)
	assert.Equal(t, 1, second.Missing)
	_, err = os.Stat(placed)
	require.NoError(t, err)

	entries, err := os.ReadDir(output)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocatorIgnoresOtherRecordsStagedFiles(t *testing.T) {
	// A staged download in the output dir carries its record's sequence
	// prefix; a different record with a colliding token must not take it.
	locator, _, output := testLocator(t)
	locator.cfg.ReceiptSearchDirs = nil
	writePNG(t, filepath.Join(output, "0001_TXN12345_receipt.png"))

	records := []types.InvoiceRecord{
		record(1, "TXN123456,2024-01-15"),
		record(2, "TXN123457,2024-01-15"),
	}
	summary := locator.Run(records)

	assert.Equal(t, 1, summary.Resolved)
	assert.Regexp(t, `^0001_TXN12345_[0-9a-f]{8}\.pdf$`, records[0].ImageFileSpec)
	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, types.ImagePlaceholder, records[1].ImageFileSpec)
}

func TestLocatorPrefersSeparatorBoundedPrefix(t *testing.T) {
	// A short token must take the file named for it, not a newer file
	// whose name continues with more id characters (that one belongs to a
	// record with a longer reference id).
	locator, downloads, _ := testLocator(t)
	bounded := filepath.Join(downloads, "TXN1_receipt.png")
	longer := filepath.Join(downloads, "TXN12345.png")
	writePNG(t, bounded)
	writePNG(t, longer)

	info, err := os.Stat(bounded)
	require.NoError(t, err)
	newer := info.ModTime().Add(time.Hour)
	require.NoError(t, os.Chtimes(longer, newer, newer))

	records := []types.InvoiceRecord{record(1, "TXN1,2024-01-15")}
	summary := locator.Run(records)

	require.Equal(t, 1, summary.Resolved)
	_, err = os.Stat(bounded)
	assert.True(t, os.IsNotExist(err), "separator-bounded match should have been consumed")
	_, err = os.Stat(longer)
	assert.NoError(t, err, "longer-id file should be untouched")
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		token    string
		score    int
		ok       bool
	}{
		{"exact stem", "TXN12345.png", "TXN12345", 3, true},
		{"exact stem case-insensitive", "txn12345.PNG", "TXN12345", 3, true},
		{"prefix with separator", "TXN12345_receipt.png", "TXN12345", 2, true},
		{"prefix with space", "TXN12345 (1).png", "TXN12345", 2, true},
		{"prefix into longer id", "TXN123456.png", "TXN1234", 1, true},
		{"substring", "receipt_TXN12345.png", "TXN12345", 0, true},
		{"no match", "groceries.png", "TXN12345", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := matchScore(tt.fileName, tt.token)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.score, score)
			}
		})
	}
}

func TestPlacedNameFormat(t *testing.T) {
	assert.Regexp(t, `^0007_txn_0007_[0-9a-f]{8}\.pdf$`, placedName(7, "txn_0007"))
}
