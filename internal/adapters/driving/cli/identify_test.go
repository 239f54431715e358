package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

func TestIdentifyCmd_ServiceNotConfigured(t *testing.T) {
	useSourceService(t, nil)

	_, err := execute(t, "identify", "--source", "ELO")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "source service not configured")
}

func TestIdentifyCmd_Online(t *testing.T) {
	useSourceService(t, &mockSourceService{identity: &driven.OAIIdentity{
		RepositoryName:    "Erfgoed Leiden",
		BaseURL:           "https://example.org/oai",
		ProtocolVersion:   "2.0",
		EarliestDatestamp: "2010-01-01",
		DeletedRecord:     "persistent",
		Granularity:       "YYYY-MM-DD",
	}})

	out, err := execute(t, "identify", "--source", "elo")

	require.NoError(t, err)
	assert.Contains(t, out, "ELO")
	assert.Contains(t, out, "online")
	assert.Regexp(t, `Repository:\s+Erfgoed Leiden\n`, out)
	assert.Regexp(t, `Granularity:\s+YYYY-MM-DD\n`, out)
}

func TestIdentifyCmd_Offline(t *testing.T) {
	useSourceService(t, &mockSourceService{identifyErr: errors.New("connection refused")})

	out, err := execute(t, "identify", "--source", "ELO")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "identify failed")
	assert.Contains(t, out, "offline")
}

func TestIdentifyCmd_UnknownSource(t *testing.T) {
	useSourceService(t, &mockSourceService{identifyErr: fmt.Errorf("get source: %w", domain.ErrNotFound)})

	out, err := execute(t, "identify", "--source", "ZZZ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source ZZZ")
	assert.NotContains(t, out, "offline")
}

func TestSetsCmd_Lists(t *testing.T) {
	useSourceService(t, &mockSourceService{sets: []driven.OAISet{
		{Spec: "bs_geboorte", Name: "Geboorteakten"},
		{Spec: "dtb", Name: "Doop, trouw, begraaf"},
	}})

	out, err := execute(t, "sets", "--source", "ELO")

	require.NoError(t, err)
	assert.Contains(t, out, "Sets of ELO (2)")
	assert.Regexp(t, `bs_geboorte\s+Geboorteakten\n`, out)
	assert.Regexp(t, `dtb\s+Doop, trouw, begraaf\n`, out)
}

func TestSetsCmd_Empty(t *testing.T) {
	useSourceService(t, &mockSourceService{})

	out, err := execute(t, "sets", "--source", "ELO")

	require.NoError(t, err)
	assert.Contains(t, out, "ELO exposes no sets.")
}

func TestSetsCmd_RequiresSource(t *testing.T) {
	useSourceService(t, &mockSourceService{})

	_, err := execute(t, "sets")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--source")
}
