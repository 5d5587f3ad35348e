package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rshade/footprint-estimator/internal/carbon"
	"github.com/rshade/footprint-estimator/internal/config"
	"github.com/rshade/footprint-estimator/internal/history"
)

const detailedInput = `{
	"energy": {"electricity": 300, "water": 10, "gas": 5},
	"transport": {"type": "scooter_gas", "km": 400},
	"diet": {"meat": 7, "veg": 7},
	"consumption": {"clothes": 2000, "electronics": 1000},
	"waste": {"bags": 0, "recycle": 20}
}`

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvLogLevel, "error")

	cmd := NewRootCmd("test")
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SilenceErrors = true

	err := cmd.Execute()
	return out.String(), err
}

// feedServer serves a grid-intensity CSV and points the config at it.
func feedServer(t *testing.T, body string, status int) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	t.Setenv(config.EnvGridFeedURL, srv.URL)
}

func TestQuickCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "", "quick", "--offline", "--json",
		"--commute", "scooter_gas", "--diet", "meat_heavy", "--shopping", "high")
	require.NoError(t, err)

	var result struct {
		Total      float64            `json:"total"`
		Breakdown  map[string]float64 `json:"breakdown"`
		Suggestion string             `json:"suggestion"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3034.5, result.Total)
	assert.Equal(t, 2372.5, result.Breakdown["diet"])
	assert.Contains(t, result.Suggestion, "meat-free day")
}

func TestQuickCmd_Text(t *testing.T) {
	out, err := runCLI(t, "", "quick", "--offline", "--commute", "bike", "--diet", "vegetarian", "--shopping", "low")
	require.NoError(t, err)

	assert.Contains(t, out, "Quick estimate: 595.5 kgCO2e/year")
	assert.Contains(t, out, "diet")
	assert.Contains(t, out, "547.5")
	assert.NotContains(t, out, "energy", "quick mode has no energy category")
}

func TestQuickCmd_Defaults(t *testing.T) {
	out, err := runCLI(t, "", "quick", "--offline", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 1761`)
}

func TestDetailedCmd_UsesFeed(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantEnergy float64
	}{
		// 300×12×0.474 + 10×12×0.15 + 5×12×2.1
		{name: "fetched intensity", args: []string{"detailed", "--file", "-", "--json"}, wantEnergy: 1850.4},
		// 300×12×0.495 + 10×12×0.15 + 5×12×2.1
		{name: "offline fallback", args: []string{"detailed", "--offline", "--file", "-", "--json"}, wantEnergy: 1926},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedServer(t, "year,factor\n111,0.495\n112,0.474\n", http.StatusOK)

			out, err := runCLI(t, detailedInput, tt.args...)
			require.NoError(t, err)

			var result struct {
				Breakdown map[string]float64 `json:"breakdown"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &result))
			assert.Equal(t, tt.wantEnergy, result.Breakdown["energy"])
		})
	}
}

func TestDetailedCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(detailedInput), 0o600))

	out, err := runCLI(t, "", "detailed", "--offline", "--file", path, "--json")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2306.0, result["total"])
}

func TestDetailedCmd_Stdin(t *testing.T) {
	out, err := runCLI(t, detailedInput, "detailed", "--offline", "--file", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "Detailed estimate: 2306.0 kgCO2e/year")
	assert.Contains(t, out, "-520.0")
	assert.Contains(t, out, "Household energy")
}

func TestDetailedCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{
			name:    "missing file flag",
			args:    []string{"detailed", "--offline"},
			wantErr: "file",
		},
		{
			name:    "unreadable file",
			args:    []string{"detailed", "--offline", "--file", "/nonexistent/input.json"},
			wantErr: "reading detailed input",
		},
		{
			name:    "malformed JSON",
			stdin:   "{",
			args:    []string{"detailed", "--offline", "--file", "-"},
			wantErr: "parsing detailed input",
		},
		{
			name:    "validation error",
			stdin:   strings.Replace(detailedInput, `"km": 400`, `"km": -4`, 1),
			args:    []string{"detailed", "--offline", "--file", "-"},
			wantErr: "transport.km",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCoefficientsCmd_Offline(t *testing.T) {
	out, err := runCLI(t, "", "coefficients", "--offline")
	require.NoError(t, err)

	var view struct {
		Coefficients carbon.Table `yaml:"coefficients"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.Equal(t, carbon.FallbackGridIntensity, view.Coefficients.Energy.Electricity)
	assert.Equal(t, 0.173, view.Coefficients.Transport["car_gas"])
	assert.NotContains(t, out, "refreshed_at")
}

func TestCoefficientsCmd_Refresh(t *testing.T) {
	feedServer(t, "year,factor\n111,0.495\n112,0.474\n", http.StatusOK)

	out, err := runCLI(t, "", "coefficients", "--refresh", "--output", "json")
	require.NoError(t, err)

	var view struct {
		RefreshedAt  string       `json:"refreshed_at"`
		Coefficients carbon.Table `json:"coefficients"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 0.474, view.Coefficients.Energy.Electricity)
	assert.NotEmpty(t, view.RefreshedAt)
}

func TestCoefficientsCmd_FeedDownFallsBack(t *testing.T) {
	feedServer(t, "", http.StatusNotFound)

	out, err := runCLI(t, "", "coefficients", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"electricity": 0.495`)
}

func TestCoefficientsCmd_UnknownFormat(t *testing.T) {
	_, err := runCLI(t, "", "coefficients", "--offline", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	t.Setenv(config.EnvCORSOrigins, "*")
	t.Setenv(config.EnvCORSCredentials, "true")

	_, err := runCLI(t, "", "quick", "--offline")
	assert.ErrorIs(t, err, config.ErrWildcardCredentials)
}

func TestRootCmd_PoolSuggestions(t *testing.T) {
	t.Setenv(config.EnvSuggestions, config.SuggestionsPool)

	out, err := runCLI(t, "", "quick", "--offline", "--json", "--diet", "meat_heavy")
	require.NoError(t, err)

	var result struct {
		Suggestion string `json:"suggestion"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Contains(t, carbon.SuggestionPool[carbon.CategoryDiet], result.Suggestion)
}

func TestOpenHistory(t *testing.T) {
	ctx := context.Background()

	repo, err := openHistory(ctx, config.HistoryConfig{Backend: config.HistoryMemory}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &history.MemoryRepository{}, repo)

	repo, err = openHistory(ctx, config.HistoryConfig{
		Backend: config.HistoryFile,
		Path:    filepath.Join(t.TempDir(), "history.jsonl"),
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &history.FileRepository{}, repo)

	_, err = openHistory(ctx, config.HistoryConfig{Backend: "mysql"}, zerolog.Nop())
	assert.Error(t, err)
}
