package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

type stubConfig struct {
	cfg domain.Config
	err error
}

func (s stubConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type stubSafety struct{ allowAll bool }

func (s stubSafety) Check(command string) error {
	if !s.allowAll && command == "rm -rf /" {
		return errors.New("rejected")
	}
	return nil
}

type stubCollector struct{}

func (stubCollector) Collect(context.Context) (domain.ContextSnapshot, error) {
	return domain.ContextSnapshot{WorkingDir: "/work", Files: []string{"a.mov"}}, nil
}

type stubTool struct {
	ports.Plugin
	name      string
	installed bool
}

func (s stubTool) Name() string                     { return s.name }
func (s stubTool) IsInstalled(context.Context) bool { return s.installed }
func (s stubTool) InstallHint() string              { return "brew install " + s.name }

func configured() domain.Config {
	return domain.Config{
		Providers: []domain.ProviderConfig{{Kind: domain.ProviderOllama}},
		Models: domain.ModelPreferences{
			RouterModel:   domain.DefaultRouterModel,
			ExecutorModel: domain.DefaultExecutorModel,
		},
		History: domain.HistorySettings{Path: "/tmp/history.db"},
		Cache:   domain.CacheSettings{Capacity: domain.DefaultCacheCapacity},
	}
}

func byName(report Report) map[string]Check {
	out := make(map[string]Check, len(report.Checks))
	for _, c := range report.Checks {
		out[c.Name] = c
	}
	return out
}

func TestRun_AllChecks(t *testing.T) {
	svc := &Service{
		ConfigProvider:   stubConfig{cfg: configured()},
		Safety:           stubSafety{},
		ContextCollector: stubCollector{},
		Plugins: []ports.Plugin{
			stubTool{name: "ffmpeg", installed: true},
			stubTool{name: "f2"},
		},
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Healthy())

	checks := byName(report)
	assert.Equal(t, StatusOK, checks["Config file"].Status)
	assert.Equal(t, StatusOK, checks["Safety gate"].Status)
	assert.Equal(t, "1 file(s) in /work", checks["Context collector"].Details)
	assert.Equal(t, StatusOK, checks["Tool ffmpeg"].Status)
	assert.Equal(t, StatusWarn, checks["Tool f2"].Status)
	assert.Equal(t, "missing: brew install f2", checks["Tool f2"].Details)
}

func TestRun_ConfigLoadFailure(t *testing.T) {
	svc := &Service{ConfigProvider: stubConfig{err: errors.New("boom")}}

	report, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, StatusError, report.Checks[0].Status)
	assert.False(t, report.Healthy())
}

func TestRun_PermissiveSafetyGateFails(t *testing.T) {
	svc := &Service{
		ConfigProvider: stubConfig{cfg: configured()},
		Safety:         stubSafety{allowAll: true},
	}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Equal(t, "accepts rm -rf /", byName(report)["Safety gate"].Details)
}
