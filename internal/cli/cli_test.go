package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tacogips/nodestage/internal/app"
	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/stagetest"
)

// captureStdout redirects command output for the duration of a test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	oldNoColor, oldQuiet := globalNoColor, globalQuiet
	globalNoColor, globalQuiet = true, false
	t.Cleanup(func() {
		stdout = old
		globalNoColor, globalQuiet = oldNoColor, oldQuiet
	})
	return &buf
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml", "JSON"} {
		if err := ValidateOutputFormat(f); err != nil {
			t.Errorf("ValidateOutputFormat(%q) unexpected error: %v", f, err)
		}
	}
	if err := ValidateOutputFormat("xml"); err == nil {
		t.Error("ValidateOutputFormat(xml) should fail")
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "ipv4", addr: "203.0.113.5"},
		{name: "ipv6", addr: "2001:db8::1"},
		{name: "empty", addr: "", wantErr: true},
		{name: "hostname", addr: "node.example.com", wantErr: true},
		{name: "with port", addr: "203.0.113.5:35000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
			if err := addressValidator(tt.addr); (err != nil) != tt.wantErr {
				t.Errorf("addressValidator(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}

	if err := addressValidator(42); err == nil {
		t.Error("addressValidator should reject non-string values")
	}
}

func TestResolveAddressGiven(t *testing.T) {
	addr, err := resolveAddress("198.51.100.7")
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.7", addr)

	_, err = resolveAddress("nope")
	assert.Error(t, err)
}

func sampleResult() *app.StageResult {
	return &app.StageResult{
		RunID:   "run-1",
		Network: "casper",
		Versions: []app.VersionOutcome{
			{Version: "1_0_0", Initial: model.Staged, Final: model.Staged, Action: app.ActionNone},
			{Version: "1_1_0", Initial: model.Unstaged, Final: model.Staged, Action: app.ActionInstall, ConfigPath: "/etc/casper/1_1_0/config.toml"},
			{Version: "1_2_0", Initial: model.BinOnly, Final: model.BinOnly, Action: app.ActionReport,
				Err: model.NewPreconditionError("/etc/casper/1_2_0", "repair"), Error: "PreconditionViolation: repair"},
		},
	}
}

func TestPrintStructured(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		buf := captureStdout(t)
		done, err := printStructured(OutputJSON, sampleResult())
		require.NoError(t, err)
		assert.True(t, done)

		var decoded struct {
			Network  string `json:"network"`
			Versions []struct {
				Version string `json:"version"`
				Final   string `json:"final"`
				Error   string `json:"error"`
			} `json:"versions"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "casper", decoded.Network)
		require.Len(t, decoded.Versions, 3)
		assert.Equal(t, "Staged", decoded.Versions[1].Final)
		assert.Equal(t, "BinOnly", decoded.Versions[2].Final)
		assert.NotEmpty(t, decoded.Versions[2].Error)
	})

	t.Run("yaml", func(t *testing.T) {
		buf := captureStdout(t)
		done, err := printStructured(OutputYAML, sampleResult())
		require.NoError(t, err)
		assert.True(t, done)

		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "run-1", decoded["run_id"])
		assert.Contains(t, buf.String(), "final: BinOnly")
	})

	t.Run("text", func(t *testing.T) {
		buf := captureStdout(t)
		done, err := printStructured(OutputText, sampleResult())
		require.NoError(t, err)
		assert.False(t, done)
		assert.Zero(t, buf.Len())
	})
}

func TestPrintStageText(t *testing.T) {
	buf := captureStdout(t)
	printStageText(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "=== Protocol versions (casper) ===")
	assert.Contains(t, out, "1_0_0")
	assert.Contains(t, out, "(install, was Unstaged) -> /etc/casper/1_1_0/config.toml")
	assert.NotContains(t, out, "\033[")
}

func TestFormatStatus(t *testing.T) {
	captureStdout(t)
	assert.Equal(t, "NoConfig", formatStatus(model.NoConfig))

	globalNoColor = false
	assert.Equal(t, colorGreen+"Staged"+colorReset, formatStatus(model.Staged))
	assert.Equal(t, colorYellow+"Unstaged"+colorReset, formatStatus(model.Unstaged))
	assert.Equal(t, colorRed+"WrongNetwork"+colorReset, formatStatus(model.WrongNetwork))
}

func TestStageCommand(t *testing.T) {
	host := stagetest.NewHost(t, "casper-test")
	host.AddVersion(t, "1_0_0")
	host.AddVersion(t, "1_1_0")
	layout := stagetest.Roots(t)
	stagetest.StageVersion(t, layout, "casper-test", "1_0_0")

	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles")
	stagetest.WriteFile(t, filepath.Join(profiles, "casper-test.conf"),
		"SOURCE_URL="+host.Server.URL+"\nNETWORK_NAME=casper-test\n")

	cfgPath := filepath.Join(dir, "config.json")
	cfg := map[string]interface{}{
		"config_root":   layout.ConfigRoot,
		"bin_root":      layout.BinRoot,
		"profile_dir":   profiles,
		"staging_dir":   filepath.Join(dir, "staging"),
		"required_user": "",
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, data, 0644))

	buf := captureStdout(t)
	rootCmd.SetArgs([]string{"stage-protocols", "--config", cfgPath, "-n", "casper-test",
		"--ip", "203.0.113.5", "--output", "json", "--no-color", "--quiet"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		globalConfig, globalNetwork = "", ""
		stageIP, stageOutput = "", OutputText
	})

	require.NoError(t, rootCmd.Execute())

	var result app.StageResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Len(t, result.Versions, 2)
	assert.Equal(t, app.ActionNone, result.Versions[0].Action)
	assert.Equal(t, app.ActionInstall, result.Versions[1].Action)
	assert.Equal(t, model.Staged, result.Versions[1].Final)

	config, err := os.ReadFile(layout.ConfigFile("1_1_0"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(config), "public_address = '203.0.113.5:0'"))
}
