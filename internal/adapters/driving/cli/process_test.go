package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driving"
)

func TestProcessCmd_ServiceNotConfigured(t *testing.T) {
	useProcessor(t, nil)

	_, err := execute(t, "process")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "process service not configured")
}

func TestProcessCmd_PassesFilters(t *testing.T) {
	p := &mockProcessor{}
	useProcessor(t, p)

	_, err := execute(t, "process", "--source", "ELO", "--set", "bs_geboorte", "--dry-run")

	require.NoError(t, err)
	assert.Equal(t, driving.ProcessRequest{SourceCode: "ELO", SetSpec: "bs_geboorte", DryRun: true}, p.req)
	assert.False(t, p.watched)
}

func TestProcessCmd_Summary(t *testing.T) {
	useProcessor(t, &mockProcessor{stats: driving.ProcessStats{
		Files:         2,
		Processed:     10,
		Saved:         7,
		Skipped:       1,
		Errors:        2,
		FailedBatches: 0,
	}})

	out, err := execute(t, "process")

	require.NoError(t, err)
	assert.Contains(t, out, "Processing summary")
	assert.NotContains(t, out, "dry run")
	assert.Regexp(t, `Files:\s+2\n`, out)
	assert.Regexp(t, `Records processed:\s+10\n`, out)
	assert.Regexp(t, `Records saved:\s+7\n`, out)
	assert.Regexp(t, `Deleted skipped:\s+1\n`, out)
	assert.Regexp(t, `Errors:\s+2\n`, out)
	assert.Regexp(t, `Failed batches:\s+0\n`, out)
}

func TestProcessCmd_DryRunTitle(t *testing.T) {
	useProcessor(t, &mockProcessor{})

	out, err := execute(t, "process", "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "Processing summary (dry run)")
}

func TestProcessCmd_MissingFile(t *testing.T) {
	p := &mockProcessor{err: fmt.Errorf("batch missing.xml: %w", domain.ErrNotFound)}
	useProcessor(t, p)

	_, err := execute(t, "process", "--file", "missing.xml")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "missing.xml", p.req.File)
}

func TestProcessCmd_WatchRejectsFile(t *testing.T) {
	useProcessor(t, &mockProcessor{})

	_, err := execute(t, "process", "--watch", "--file", "x.xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch cannot be combined with --file")
}

func TestProcessCmd_Watch(t *testing.T) {
	p := &mockProcessor{
		stats: driving.ProcessStats{Files: 1, Saved: 3},
		batches: []driving.ProcessStats{
			{Files: 1, Processed: 2, Saved: 2},
			{Files: 1, Processed: 3, Saved: 2, Errors: 1},
		},
	}
	useProcessor(t, p)

	out, err := execute(t, "process", "--watch")

	require.NoError(t, err)
	assert.True(t, p.watched)
	assert.Contains(t, out, "Processing summary")
	assert.Contains(t, out, "batch: 2 saved, 0 skipped, 0 errors")
	assert.Contains(t, out, "batch: 2 saved, 0 skipped, 1 errors")
	assert.Contains(t, out, "Watch summary")
	assert.Regexp(t, `Records saved:\s+4\n`, out)
}

func TestProcessCmd_WatchError(t *testing.T) {
	useProcessor(t, &mockProcessor{err: fmt.Errorf("list batches: %w", domain.ErrNotFound)})

	_, err := execute(t, "process", "--watch", "--source", "ELO")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "watch failed")
}
