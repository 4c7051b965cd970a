package receipts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blm-finops/expense-invoice-converter/internal/types"
)

func TestVerifyPartitionsRecords(t *testing.T) {
	output := t.TempDir()

	placed := "0001_TXN12345_a1b2c3d4.pdf"
	require.NoError(t, os.WriteFile(filepath.Join(output, placed), []byte("%PDF"), 0644))

	records := []types.InvoiceRecord{
		// Resolved: reference set and file on disk.
		{Sequence: 1, HashInput: "TXN123456,2024-01-15", ImageFileSpec: placed},
		// Dangling: reference set but file missing.
		{Sequence: 2, HashInput: "TXN999999,2024-01-16", ImageFileSpec: "0002_TXN99999_ffffffff.pdf"},
		// Never matched.
		{Sequence: 3, HashInput: "txn_0003,2024-01-17", ImageFileSpec: types.ImagePlaceholder},
	}

	report := Verify(records, output)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Resolved)
	assert.Equal(t, 2, report.Unresolved)
	assert.Equal(t, []string{"TXN99999", "txn_0003"}, report.UnresolvedTokens)
	assert.False(t, report.Complete())

	// Verification never mutates the record set.
	assert.Equal(t, types.ImagePlaceholder, records[2].ImageFileSpec)
}

func TestVerifyCompleteSet(t *testing.T) {
	output := t.TempDir()
	placed := "0001_TXN12345_a1b2c3d4.pdf"
	require.NoError(t, os.WriteFile(filepath.Join(output, placed), []byte("%PDF"), 0644))

	report := Verify([]types.InvoiceRecord{
		{Sequence: 1, HashInput: "TXN123456,2024-01-15", ImageFileSpec: placed},
	}, output)

	assert.True(t, report.Complete())
	assert.Empty(t, report.UnresolvedTokens)
}

func TestVerifyEmptySet(t *testing.T) {
	report := Verify(nil, t.TempDir())
	assert.Equal(t, 0, report.Total)
	assert.True(t, report.Complete())
}
