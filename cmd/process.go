// =============================================================================
// Expense to Invoice Converter - Process Command
// =============================================================================
//
// The 'process' command transforms expense exports into invoice CSVs.
//
// COMMAND USAGE:
//   invoicer process [flags]
//
// FLAGS:
//   --file          : Process a single specific export instead of scanning
//   --dry-run       : Transform and report, but write nothing
//   --skip-download : Skip the direct receipt download attempt
//
// PROCESSING PIPELINE, per export:
//   1. Parse the export (CSV or XLSX) and validate the schema
//   2. Filter and transform records into the invoice set
//   3. Write the timestamped invoice CSV to the output directory
//   4. Generate the receipt URL list and browser opener script
//   5. Attempt direct receipt downloads into the staging area
//   6. Archive the processed export
//
// Files are processed sequentially; an error in one export does not stop
// the others.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blm-finops/expense-invoice-converter/internal/expense"
	"github.com/blm-finops/expense-invoice-converter/internal/invoice"
	"github.com/blm-finops/expense-invoice-converter/internal/receipts"
	"github.com/blm-finops/expense-invoice-converter/internal/transform"
	"github.com/blm-finops/expense-invoice-converter/pkg/utils"
)

// processFile is the path of a single export to process (empty = scan).
var processFile string

// dryRun transforms without writing output files.
var dryRun bool

// skipDownload disables the direct receipt download attempt.
var skipDownload bool

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Transform expense exports into invoice upload CSVs",
	Long: `The process command scans the input directory for expense exports
(.csv or .xlsx), transforms each into the invoice upload format, and writes
a timestamped CSV to the output directory.

Per export:
  - Rows with non-positive amounts (credits/refunds) are dropped
  - Rows with unparseable dates are skipped and summarized at the end
  - A missing required column fails that export before any row is processed

Receipt handling: a URL list and a browser opener script are generated for
records that carry a receipt URL, and a direct download is attempted for
each. Run 'invoicer receipts' after downloading to place the files.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(
		&processFile,
		"file",
		"",
		"Process a single export file instead of scanning the input directory",
	)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Transform and report without writing any files",
	)

	processCmd.Flags().BoolVar(
		&skipDownload,
		"skip-download",
		false,
		"Skip the direct receipt download attempt",
	)
}

// runProcess orchestrates the transform pipeline.
func runProcess() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.InputArchiveDir)

	var inputFiles []string
	if processFile != "" {
		inputFiles = []string{processFile}
	} else {
		inputFiles, err = fm.DiscoverInputFiles()
		if err != nil {
			return err
		}
	}

	if len(inputFiles) == 0 {
		log.Info().Str("dir", cfg.InputDir).Msg("no expense exports found")
		return nil
	}

	engine := transform.New(cfg, log)
	downloader := receipts.NewDownloader(cfg, log)

	var failed int
	for _, inputPath := range inputFiles {
		fileLog := log.With().Str("file", filepath.Base(inputPath)).Logger()

		data, err := expense.Parse(inputPath)
		if err != nil {
			// Includes the fatal schema case: nothing from this export
			// was processed.
			failed++
			fileLog.Error().Err(err).Msg("export could not be processed")
			continue
		}

		result, err := engine.Run(data)
		if err != nil {
			failed++
			fileLog.Error().Err(err).Msg("transform aborted")
			continue
		}

		if result.DateErrors != nil {
			fileLog.Error().Err(result.DateErrors).
				Int("skipped", result.SkippedDates).
				Msg("some records were skipped for unparseable dates")
		}
		if result.Warning != nil {
			fileLog.Warn().Msg(result.Warning.Error())
		}

		if dryRun {
			fileLog.Info().Int("invoices", len(result.Invoices)).
				Msg("dry run: no files written")
			continue
		}

		outputPath := filepath.Join(cfg.OutputDir, invoice.GenerateFileName(inputPath))
		if err := invoice.WriteFile(outputPath, result.Invoices); err != nil {
			failed++
			fileLog.Error().Err(err).Msg("failed to write invoice CSV")
			continue
		}
		fileLog.Info().Str("output", filepath.Base(outputPath)).
			Int("invoices", len(result.Invoices)).
			Msg("invoice CSV written")

		urlsPath, scriptPath, err := downloader.GenerateArtifacts(result.Invoices)
		if err != nil {
			fileLog.Warn().Err(err).Msg("could not write receipt download helpers")
		} else if urlsPath != "" {
			fileLog.Info().
				Str("urls", filepath.Base(urlsPath)).
				Str("script", filepath.Base(scriptPath)).
				Msg("receipt download helpers written")
		}

		if !skipDownload {
			downloader.Download(result.Invoices)
		}

		if _, err := fm.ArchiveInputFile(inputPath); err != nil {
			fileLog.Warn().Err(err).Msg("processed export could not be archived")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d export(s) failed", failed, len(inputFiles))
	}
	return nil
}
