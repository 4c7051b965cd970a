package receipts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

func TestConvertToPDFProducesPDF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "receipt.png")
	dst := filepath.Join(dir, "receipt.pdf")
	writePNG(t, src)

	require.NoError(t, ConvertToPDF(src, dst))

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, len(out) > 4 && string(out[:4]) == "%PDF")

	// The source is left for the caller to dispose of.
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestConvertToPDFRejectsCorruptImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "receipt.png")
	dst := filepath.Join(dir, "receipt.pdf")
	require.NoError(t, os.WriteFile(src, []byte("definitely not a png"), 0644))

	err := ConvertToPDF(src, dst)

	var convErr *types.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, src, convErr.SourcePath)

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertToPDFRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	err := ConvertToPDF(filepath.Join(dir, "nope.png"), filepath.Join(dir, "out.pdf"))

	var convErr *types.ConversionError
	require.ErrorAs(t, err, &convErr)
}

func TestPDFImageType(t *testing.T) {
	tests := []struct {
		format string
		want   string
		ok     bool
	}{
		{"png", "PNG", true},
		{"jpeg", "JPG", true},
		{"gif", "GIF", true},
		{"webp", "", false},
		{"bmp", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := pdfImageType(tt.format)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestFitToPage(t *testing.T) {
	tests := []struct {
		name  string
		w, h  float64
		wantW float64
		wantH float64
	}{
		{"fits unchanged", 100, 150, 100, 150},
		{"too wide", 380, 100, 190, 50},
		{"too tall", 100, 554, 50, 277},
		{"degenerate", 0, 0, pageWidthMM, pageHeightMM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitToPage(tt.w, tt.h)
			assert.InDelta(t, tt.wantW, w, 0.01)
			assert.InDelta(t, tt.wantH, h, 0.01)
		})
	}
}
