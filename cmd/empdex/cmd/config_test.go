package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	// Given: root command
	cmd := NewRootCmd()

	// When: finding config command
	configCmd, _, err := cmd.Find([]string{"config"})
	require.NoError(t, err)

	// Then: config command should have subcommands
	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["init"], "should have init command")
	assert.True(t, names["show"], "should have show command")
	assert.True(t, names["path"], "should have path command")
}

func TestConfigInitCmd_HasForceFlag(t *testing.T) {
	cmd := NewRootCmd()

	initCmd, _, err := cmd.Find([]string{"config", "init"})
	require.NoError(t, err)

	flag := initCmd.Flags().Lookup("force")
	require.NotNil(t, flag, "should have --force flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestConfigShowCmd_HasFlags(t *testing.T) {
	cmd := NewRootCmd()

	showCmd, _, err := cmd.Find([]string{"config", "show"})
	require.NoError(t, err)

	jsonFlag := showCmd.Flags().Lookup("json")
	require.NotNil(t, jsonFlag, "should have --json flag")
	assert.Equal(t, "false", jsonFlag.DefValue)

	sourceFlag := showCmd.Flags().Lookup("source")
	require.NotNil(t, sourceFlag, "should have --source flag")
	assert.Equal(t, "merged", sourceFlag.DefValue)
}

func TestConfigPathCmd_OutputsPath(t *testing.T) {
	// Given: temp home directory
	withTempHome(t)

	// When: running config path
	output, err := execute(t, "config", "path")

	// Then: the user config location is printed
	require.NoError(t, err)
	assert.Contains(t, output, "empdex")
	assert.Contains(t, output, "config.yaml")
}

func TestConfigInit_NewFile(t *testing.T) {
	// Given: empty config directory
	tmp := withTempHome(t)

	// When: running config init
	output, err := execute(t, "config", "init")

	// Then: the template lands at the XDG path
	require.NoError(t, err)
	assert.Contains(t, output, "Created user configuration")
	assert.Contains(t, output, "Next steps:")

	configPath := filepath.Join(tmp, ".config", "empdex", "config.yaml")
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "elasticsearch:")
	assert.Contains(t, string(data), "collections:")
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	// Given: existing config file
	tmp := withTempHome(t)
	configDir := filepath.Join(tmp, ".config", "empdex")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	configPath := filepath.Join(configDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0o644))

	// When: running config init without --force
	output, err := execute(t, "config", "init")

	// Then: the file is kept and --force is suggested
	require.NoError(t, err)
	assert.Contains(t, output, "already exists")
	assert.Contains(t, output, "--force")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestConfigInit_ForceUpgrades(t *testing.T) {
	// Given: an older config missing newer options
	tmp := withTempHome(t)
	configDir := filepath.Join(tmp, ".config", "empdex")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	configPath := filepath.Join(configDir, "config.yaml")
	old := "version: 1\nelasticsearch:\n  addresses:\n    - http://search.internal:9200\n"
	require.NoError(t, os.WriteFile(configPath, []byte(old), 0o644))

	// When: running config init --force
	output, err := execute(t, "config", "init", "--force")

	// Then: the config is upgraded with a backup
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration upgraded")
	assert.Contains(t, output, "Backup:")

	// And: the existing setting survives while missing keys are filled in
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "http://search.internal:9200")
	assert.Contains(t, string(data), "timeout:")
	assert.Contains(t, string(data), "collections:")

	// And: a backup file was written
	entries, err := os.ReadDir(configDir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if e.Name() != "config.yaml" {
			backups++
		}
	}
	assert.Equal(t, 1, backups, "expected one backup file")
}

func TestConfigShow_Defaults(t *testing.T) {
	// Given: clean environment
	withTempHome(t)

	// When: showing default config
	output, err := execute(t, "config", "show", "--source=defaults")

	// Then: the hardcoded defaults are rendered
	require.NoError(t, err)
	assert.Contains(t, output, "defaults")
	assert.Contains(t, output, "employees")
	assert.Contains(t, output, "employee_data.csv")
}

func TestConfigShow_JSONOutput(t *testing.T) {
	// Given: clean environment
	withTempHome(t)

	// When: showing default config as JSON
	output, err := execute(t, "config", "show", "--source=defaults", "--json")

	// Then: the output parses as JSON with known keys
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &cfg))
	assert.Contains(t, cfg, "elasticsearch")
	assert.Contains(t, cfg, "collections")
}

func TestConfigShow_ProjectSource(t *testing.T) {
	// Given: a project config in the working directory
	tmp := withTempHome(t)
	project := "version: 1\ncollections:\n  primary: staff\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".empdex.yaml"), []byte(project), 0o644))

	// When: showing the project source
	output, err := execute(t, "config", "show", "--source=project")

	// Then: the project values appear
	require.NoError(t, err)
	assert.Contains(t, output, "project")
	assert.Contains(t, output, "staff")
}

func TestConfigShow_InvalidSource(t *testing.T) {
	// When: showing config with an unknown source
	_, err := execute(t, "config", "show", "--source=invalid")

	// Then: the command fails
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}

func TestConfigShow_UserNotExists(t *testing.T) {
	// Given: no user config file
	withTempHome(t)

	// When: showing the user source
	output, err := execute(t, "config", "show", "--source=user")

	// Then: the missing file is reported without failing
	require.NoError(t, err)
	assert.Contains(t, output, "No user configuration")
	assert.Contains(t, output, "config init")
}
