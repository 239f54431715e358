package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/core/ports/driving"
)

// resetFlags clears flag variables left over from earlier executions.
func resetFlags() {
	verbose, homeDir = false, ""
	harvestSource, harvestSet, harvestLimit, harvestResume, harvestFrom, harvestUntil = "", "", 0, false, "", ""
	processSource, processSet, processFile, processDryRun, processWatch = "", "", "", false, false
	statusSource, statusSet = "", ""
	identifySource, setsSource = "", ""
}

// execute runs rootCmd with args and returns the combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func useHarvester(t *testing.T, h driving.Harvester) {
	t.Helper()
	old := harvester
	harvester = h
	t.Cleanup(func() { harvester = old })
}

func useProcessor(t *testing.T, p driving.Processor) {
	t.Helper()
	old := processor
	processor = p
	t.Cleanup(func() { processor = old })
}

func useSourceService(t *testing.T, s driving.SourceService) {
	t.Helper()
	old := sourceService
	sourceService = s
	t.Cleanup(func() { sourceService = old })
}

func useSettingsService(t *testing.T, s driving.SettingsService) {
	t.Helper()
	old := settingsService
	settingsService = s
	t.Cleanup(func() { settingsService = old })
}

// mockHarvester implements driving.Harvester for testing.
type mockHarvester struct {
	result *driving.HarvestResult
	err    error
	logs   []domain.HarvestLog

	req driving.HarvestRequest
}

func (m *mockHarvester) Harvest(_ context.Context, req driving.HarvestRequest) (*driving.HarvestResult, error) {
	m.req = req
	return m.result, m.err
}

func (m *mockHarvester) Status(_ context.Context, sourceCode, setSpec string) (*domain.HarvestLog, error) {
	for i := range m.logs {
		if m.logs[i].SourceCode == sourceCode && m.logs[i].SetSpec == setSpec {
			return &m.logs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockHarvester) StatusAll(_ context.Context, sourceCode string) ([]domain.HarvestLog, error) {
	var logs []domain.HarvestLog
	for _, l := range m.logs {
		if l.SourceCode == sourceCode {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

// mockProcessor implements driving.Processor for testing.
type mockProcessor struct {
	stats   driving.ProcessStats
	err     error
	batches []driving.ProcessStats

	req     driving.ProcessRequest
	watched bool
}

func (m *mockProcessor) Process(_ context.Context, req driving.ProcessRequest) (*driving.ProcessStats, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	stats := m.stats
	return &stats, nil
}

func (m *mockProcessor) Watch(_ context.Context, req driving.ProcessRequest, onBacklog, onBatch func(*driving.ProcessStats)) error {
	m.req = req
	m.watched = true
	if m.err != nil {
		return m.err
	}
	stats := m.stats
	onBacklog(&stats)
	for i := range m.batches {
		onBatch(&m.batches[i])
	}
	return nil
}

// mockSourceService implements driving.SourceService for testing.
type mockSourceService struct {
	sources     []domain.Source
	identity    *driven.OAIIdentity
	identifyErr error
	sets        []driven.OAISet
	stats       []domain.SourceStats
	importErr   error

	imported []domain.Source
}

func (m *mockSourceService) Import(_ context.Context, sources []domain.Source) (int, error) {
	if m.importErr != nil {
		return 0, m.importErr
	}
	m.imported = sources
	return len(sources), nil
}

func (m *mockSourceService) Get(_ context.Context, code string) (*domain.Source, error) {
	for i := range m.sources {
		if m.sources[i].Code == code {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, nil
}

func (m *mockSourceService) Identify(_ context.Context, _ string) (*driven.OAIIdentity, error) {
	return m.identity, m.identifyErr
}

func (m *mockSourceService) Sets(_ context.Context, _ string) ([]driven.OAISet, error) {
	return m.sets, nil
}

func (m *mockSourceService) Stats(_ context.Context) ([]domain.SourceStats, error) {
	return m.stats, nil
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.Settings
	setErr   error

	values map[string]any
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}
