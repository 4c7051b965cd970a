// =============================================================================
// Expense to Invoice Converter - Receipt Format Conversion
// =============================================================================
//
// Converts receipt images to PDF, the only attachment format the target
// system accepts. Files that are already PDF are copied without
// re-encoding; everything else is decoded and laid out on a single A4 page,
// scaled to fit.
//
// A file that cannot be decoded (corrupt, or a format outside the supported
// set) yields a ConversionError and the source file is left untouched.
//
// =============================================================================

package receipts

import (
	"fmt"
	"image"
	"os"

	// Decoders for the receipt formats browsers save.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"

	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

// Usable area of an A4 page in millimeters, with 10mm margins.
const (
	pageWidthMM  = 190.0
	pageHeightMM = 277.0
)

// ConvertToPDF renders the image at srcPath onto a single-page PDF at
// dstPath. The source file is not modified or removed.
func ConvertToPDF(srcPath, dstPath string) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return &types.ConversionError{SourcePath: srcPath, Cause: err}
	}
	defer file.Close()

	_, format, err := image.DecodeConfig(file)
	if err != nil {
		return &types.ConversionError{SourcePath: srcPath, Cause: fmt.Errorf("decode: %w", err)}
	}

	imageType, err := pdfImageType(format)
	if err != nil {
		return &types.ConversionError{SourcePath: srcPath, Cause: err}
	}

	if _, err := file.Seek(0, 0); err != nil {
		return &types.ConversionError{SourcePath: srcPath, Cause: err}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader("receipt", opts, file)
	if pdf.Err() {
		return &types.ConversionError{SourcePath: srcPath, Cause: pdf.Error()}
	}

	w, h := fitToPage(info.Extent())
	pdf.ImageOptions("receipt", 10, 10, w, h, false, opts, 0, "")

	if err := pdf.OutputFileAndClose(dstPath); err != nil {
		os.Remove(dstPath) // drop the partial output
		return &types.ConversionError{SourcePath: srcPath, Cause: err}
	}

	return nil
}

// pdfImageType maps an image format name to the encoder's type tag.
func pdfImageType(format string) (string, error) {
	switch format {
	case "png":
		return "PNG", nil
	case "jpeg":
		return "JPG", nil
	case "gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}

// fitToPage scales an image extent down to the usable page area, keeping
// the aspect ratio. Images already smaller than the page keep their size.
func fitToPage(w, h float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return pageWidthMM, pageHeightMM
	}

	scale := 1.0
	if w > pageWidthMM {
		scale = pageWidthMM / w
	}
	if h*scale > pageHeightMM {
		scale = pageHeightMM / h
	}
	if scale < 1.0 {
		return w * scale, h * scale
	}
	return w, h
}
