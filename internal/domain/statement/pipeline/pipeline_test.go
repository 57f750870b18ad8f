package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/registry"
)

var testNow = func() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithDefaults(Defaults{
			Currency:        "AUD",
			EarliestDate:    time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			FutureTolerance: 72 * time.Hour,
		}),
		withNow(testNow),
	}
	return New(registry.Default(), append(base, opts...)...)
}

// writeBankCSV writes a debit/credit account export to a temp file.
func writeBankCSV(t *testing.T, name string, records []string) string {
	t.Helper()
	lines := append([]string{"Date,Description,Debit,Credit,Balance"}, records...)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestProcessSingleFile(t *testing.T) {
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
		"01/03/2024,SALARY,,5000.00,100.00",
	})

	batch, err := testCoordinator(t).Process(context.Background(), []Input{{Path: path}})
	require.NoError(t, err)

	assert.Equal(t, 1, batch.FilesOK)
	assert.Zero(t, batch.FilesFailed)
	assert.Empty(t, batch.Issues)
	require.Len(t, batch.Transactions, 2)

	// merged output is date-ordered, not file-ordered
	assert.Equal(t, "SALARY", batch.Transactions[0].Description)
	assert.Equal(t, "5000", batch.Transactions[0].Amount.String())
	assert.Equal(t, "COFFEE SHOP", batch.Transactions[1].Description)
	assert.Equal(t, "-4.5", batch.Transactions[1].Amount.String())
	assert.Equal(t, path, batch.Transactions[0].SourceFile)
	assert.NotEmpty(t, batch.Transactions[0].IdentityKey)
}

func TestProcessIsIdempotent(t *testing.T) {
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
		"02/03/2024,COFFEE SHOP,4.50,,91.00",
		"03/03/2024,GROCER,88.20,,2.80",
	})
	inputs := []Input{{Path: path}}

	c := testCoordinator(t)
	first, err := c.Process(context.Background(), inputs)
	require.NoError(t, err)
	second, err := c.Process(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, first.Transactions, second.Transactions)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestProcessCollapsesCrossFileDuplicates(t *testing.T) {
	records := []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
		"03/03/2024,GROCER,88.20,,7.30",
	}
	older := writeBankCSV(t, "march-a.csv", records)
	newer := writeBankCSV(t, "march-b.csv", append(records,
		"04/03/2024,BAKERY,12.00,,-4.70",
	))

	batch, err := testCoordinator(t).Process(context.Background(), []Input{{Path: older}, {Path: newer}})
	require.NoError(t, err)

	require.Len(t, batch.Transactions, 3)
	for _, tx := range batch.Transactions[:2] {
		// the overlapping rows stay attributed to the earlier input
		assert.Equal(t, older, tx.SourceFile)
	}
	assert.Equal(t, newer, batch.Transactions[2].SourceFile)

	require.Len(t, batch.Issues, 2)
	for _, issue := range batch.Issues {
		assert.Equal(t, StageMerge, issue.Stage)
		assert.Equal(t, newer, issue.File)
	}
}

func TestProcessKeepsWithinFileDuplicates(t *testing.T) {
	// two identical rows in one statement are two real purchases
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
		"02/03/2024,COFFEE SHOP,4.50,,91.00",
	})

	batch, err := testCoordinator(t).Process(context.Background(), []Input{{Path: path}})
	require.NoError(t, err)
	assert.Empty(t, batch.Issues)
	require.Len(t, batch.Transactions, 2)
	assert.NotEqual(t, batch.Transactions[0].IdentityKey, batch.Transactions[1].IdentityKey)
}

func TestProcessOutputIndependentOfWorkerCount(t *testing.T) {
	faker := gofakeit.New(11)
	var inputs []Input
	for f := 0; f < 6; f++ {
		var records []string
		for r := 0; r < 40; r++ {
			day := faker.Number(1, 28)
			desc := strings.ToUpper(faker.Company())
			desc = strings.ReplaceAll(desc, ",", " ")
			amount := faker.Price(1, 500)
			records = append(records, fmt.Sprintf("%02d/03/2024,%s,%.2f,,0.00", day, desc, amount))
		}
		inputs = append(inputs, Input{Path: writeBankCSV(t, fmt.Sprintf("f%d.csv", f), records)})
	}

	serial, err := testCoordinator(t, WithWorkers(1)).Process(context.Background(), inputs)
	require.NoError(t, err)
	parallel, err := testCoordinator(t, WithWorkers(6)).Process(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, serial.Transactions, parallel.Transactions)
	assert.Equal(t, serial.FilesOK, parallel.FilesOK)
}

func TestProcessOrderIndependentOfInputOrder(t *testing.T) {
	// same-date rows from different files must not swap when the input
	// list is shuffled
	alpha := writeBankCSV(t, "alpha.csv", []string{
		"02/03/2024,ALPHA STORE,4.50,,0.00",
		"03/03/2024,ALPHA GROCER,9.00,,0.00",
	})
	beta := writeBankCSV(t, "beta.csv", []string{
		"02/03/2024,BETA STORE,7.25,,0.00",
	})

	forward, err := testCoordinator(t).Process(context.Background(), []Input{{Path: alpha}, {Path: beta}})
	require.NoError(t, err)
	reversed, err := testCoordinator(t).Process(context.Background(), []Input{{Path: beta}, {Path: alpha}})
	require.NoError(t, err)

	assert.Equal(t, forward.Transactions, reversed.Transactions)
}

func TestProcessIsolatesFailedFiles(t *testing.T) {
	good := writeBankCSV(t, "good.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
	})
	corrupt := filepath.Join(t.TempDir(), "corrupt.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a pdf at all"), 0o600))

	batch, err := testCoordinator(t).Process(context.Background(), []Input{{Path: corrupt}, {Path: good}})
	require.NoError(t, err)

	assert.Equal(t, 1, batch.FilesOK)
	assert.Equal(t, 1, batch.FilesFailed)
	require.Len(t, batch.Transactions, 1)
	assert.Equal(t, good, batch.Transactions[0].SourceFile)

	require.Len(t, batch.Issues, 1)
	assert.Equal(t, corrupt, batch.Issues[0].File)
	assert.Equal(t, StageRead, batch.Issues[0].Stage)
	assert.Equal(t, -1, batch.Issues[0].Row)
	var unreadable *statement.DocumentUnreadableError
	assert.ErrorAs(t, batch.Issues[0].Err, &unreadable)
}

func TestProcessIsolatesBadRows(t *testing.T) {
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
		"03/03/2024,BROKEN,,,",
		"99/99/2024,BAD DATE,1.00,,",
		"04/03/2024,GROCER,88.20,,2.80",
	})

	batch, err := testCoordinator(t).Process(context.Background(), []Input{{Path: path}})
	require.NoError(t, err)

	assert.Equal(t, 1, batch.FilesOK)
	require.Len(t, batch.Transactions, 2)
	require.Len(t, batch.Issues, 2)
	assert.Equal(t, StageExtract, batch.Issues[0].Stage)
	assert.Equal(t, StageNormalize, batch.Issues[1].Stage)
}

func TestProcessCancelled(t *testing.T) {
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := testCoordinator(t).Process(ctx, []Input{{Path: path}, {Path: path}})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, batch.FilesFailed)
	assert.Empty(t, batch.Transactions)
	for _, issue := range batch.Issues {
		assert.ErrorIs(t, issue.Err, context.Canceled)
	}
}

type memoryHistory struct {
	seen map[string]bool
	err  error
}

func (m *memoryHistory) Seen(key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.seen[key], nil
}

func TestProcessFiltersPreviouslyImported(t *testing.T) {
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
		"03/03/2024,GROCER,88.20,,7.30",
	})
	inputs := []Input{{Path: path}}

	first, err := testCoordinator(t).Process(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)

	ledger := &memoryHistory{seen: map[string]bool{
		first.Transactions[0].IdentityKey: true,
	}}

	second, err := testCoordinator(t, WithHistory(ledger)).Process(context.Background(), inputs)
	require.NoError(t, err)

	// the marked key is filtered out; only the unseen row survives
	require.Len(t, second.Transactions, 1)
	assert.Equal(t, "GROCER", second.Transactions[0].Description)
	require.Len(t, second.Issues, 1)
	assert.Equal(t, StageMerge, second.Issues[0].Stage)
	assert.Contains(t, second.Issues[0].Err.Error(), "previous batch")
}

func TestProcessHistoryErrorsAreIssuesNotDrops(t *testing.T) {
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
	})
	ledger := &memoryHistory{err: errors.New("ledger offline")}

	batch, err := testCoordinator(t, WithHistory(ledger)).Process(context.Background(), []Input{{Path: path}})
	require.NoError(t, err)

	// the transaction survives, the lookup failure is surfaced
	require.Len(t, batch.Transactions, 1)
	require.Len(t, batch.Issues, 1)
	assert.Contains(t, batch.Issues[0].Err.Error(), "ledger offline")
}

func TestBatchIdentityKeys(t *testing.T) {
	path := writeBankCSV(t, "march.csv", []string{
		"02/03/2024,COFFEE SHOP,4.50,,95.50",
		"03/03/2024,GROCER,88.20,,7.30",
	})

	batch, err := testCoordinator(t).Process(context.Background(), []Input{{Path: path}})
	require.NoError(t, err)

	keys := batch.IdentityKeys()
	require.Len(t, keys, 2)
	assert.Equal(t, batch.Transactions[0].IdentityKey, keys[0])
	assert.Equal(t, batch.Transactions[1].IdentityKey, keys[1])
}
