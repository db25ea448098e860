package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	bberrors "thoreinstein.com/bb/pkg/errors"
)

func TestRootCommandStructure(t *testing.T) {
	// Not parallel - accesses global rootCmd
	cmd := rootCmd

	if cmd.Use != "bb" {
		t.Errorf("root command Use = %q, want %q", cmd.Use, "bb")
	}

	if cmd.Short == "" {
		t.Error("root command should have Short description")
	}

	if !cmd.SilenceErrors || !cmd.SilenceUsage {
		t.Error("root command should leave error rendering to Execute")
	}

	expectedKeywords := []string{"Bitbucket", "pull requests", "app password"}
	for _, keyword := range expectedKeywords {
		if !strings.Contains(cmd.Long, keyword) {
			t.Errorf("root command Long description should mention %q", keyword)
		}
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	// Not parallel - accesses global rootCmd
	cmd := rootCmd

	configFlag := cmd.PersistentFlags().Lookup("config")
	if configFlag == nil {
		t.Fatal("root command should have --config persistent flag")
	}
	if configFlag.DefValue != "" {
		t.Errorf("--config default should be empty, got %q", configFlag.DefValue)
	}
	if !strings.Contains(configFlag.Usage, "$HOME/.config/bb") {
		t.Error("--config usage should mention default config location")
	}

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	if verboseFlag == nil {
		t.Fatal("root command should have --verbose persistent flag")
	}
	if verboseFlag.DefValue != "false" {
		t.Errorf("--verbose default should be 'false', got %q", verboseFlag.DefValue)
	}
	if verboseFlag.Shorthand != "v" {
		t.Errorf("--verbose shorthand should be 'v', got %q", verboseFlag.Shorthand)
	}
}

func commandNames(cmd *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[strings.Split(sub.Use, " ")[0]] = true
	}
	return names
}

func TestRootCommandHasSubcommands(t *testing.T) {
	tests := []struct {
		parent *cobra.Command
		want   []string
	}{
		{rootCmd, []string{"pr", "repo", "config"}},
		{prCmd, []string{"list", "status", "create", "merge", "approve", "decline", "request-changes", "diff", "checkout", "comments", "commits", "view"}},
		{repoCmd, []string{"list", "clone"}},
		{configCmd, []string{"setup", "show"}},
	}

	for _, tt := range tests {
		registered := commandNames(tt.parent)
		for _, name := range tt.want {
			if !registered[name] {
				t.Errorf("%s should have %q subcommand registered", tt.parent.Name(), name)
			}
		}
	}
}

func TestTargetFlags(t *testing.T) {
	for _, name := range []string{"workspace", "slug"} {
		if prCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("pr should have --%s", name)
		}
	}
	if repoCmd.PersistentFlags().Lookup("workspace") == nil {
		t.Error("repo should have --workspace")
	}

	state := prListCmd.Flags().Lookup("state")
	if state == nil || state.DefValue != "OPEN" {
		t.Errorf("pr list --state should default to OPEN, got %+v", state)
	}
}

func TestInitConfig_WithCustomConfigFile(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configContent := `[bitbucket]
username = "alice"
app_password = "secret"
merge_strategy = "squash"

[git]
remote = "upstream"
`
	customConfigPath := filepath.Join(tmpDir, "custom-config.toml")
	if err := os.WriteFile(customConfigPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("Failed to write custom config: %v", err)
	}

	defer resetConfig()

	oldCfgFile := cfgFile
	cfgFile = customConfigPath
	defer func() { cfgFile = oldCfgFile }()

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}

	if appConfig.Bitbucket.Username != "alice" {
		t.Errorf("bitbucket.username = %q, want %q", appConfig.Bitbucket.Username, "alice")
	}
	if appConfig.Bitbucket.MergeStrategy != "squash" {
		t.Errorf("bitbucket.merge_strategy = %q, want %q", appConfig.Bitbucket.MergeStrategy, "squash")
	}
	if appConfig.Git.Remote != "upstream" {
		t.Errorf("git.remote = %q, want %q", appConfig.Git.Remote, "upstream")
	}
}

func TestInitConfig_WithDefaultLocation(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	tmpDir := t.TempDir()

	configDir := filepath.Join(tmpDir, ".config", "bb")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	configContent := `[display]
theme = "monokai"
`
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(configContent), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	defer resetConfig()
	t.Setenv("HOME", tmpDir)

	oldCfgFile := cfgFile
	cfgFile = ""
	defer func() { cfgFile = oldCfgFile }()

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}

	if appConfig.Display.Theme != "monokai" {
		t.Errorf("display.theme = %q, want %q", appConfig.Display.Theme, "monokai")
	}
}

func TestInitConfig_NoConfigFile(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	defer resetConfig()
	t.Setenv("HOME", t.TempDir())

	oldCfgFile := cfgFile
	cfgFile = ""
	defer func() { cfgFile = oldCfgFile }()

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig() without a config file error = %v", err)
	}

	if appConfig.Git.Remote != "origin" {
		t.Errorf("git.remote default = %q, want %q", appConfig.Git.Remote, "origin")
	}
	if appConfig.Bitbucket.HasCredentials() {
		t.Error("no credentials expected without a config file")
	}
}

func TestInitConfig_EnvironmentVariables(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	defer resetConfig()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BB_BITBUCKET_USERNAME", "env-user")
	t.Setenv("BB_BITBUCKET_APP_PASSWORD", "env-secret")

	oldCfgFile := cfgFile
	cfgFile = ""
	defer func() { cfgFile = oldCfgFile }()

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}

	if appConfig.Bitbucket.Username != "env-user" || appConfig.Bitbucket.AppPassword != "env-secret" {
		t.Errorf("credentials = %q/%q, want values from the environment",
			appConfig.Bitbucket.Username, appConfig.Bitbucket.AppPassword)
	}
}

func TestInitConfig_InvalidValue(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	path := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(path, []byte("[clone]\nprotocol = \"ftp\"\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	defer resetConfig()

	oldCfgFile := cfgFile
	cfgFile = path
	defer func() { cfgFile = oldCfgFile }()

	err := initConfig()
	if err == nil || !strings.Contains(err.Error(), "clone.protocol") {
		t.Errorf("initConfig() error = %v, want clone.protocol validation error", err)
	}
}

func TestInitConfig_VerboseOutput(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[git]\nremote = \"origin\"\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	defer resetConfig()

	oldVerbose := verbose
	verbose = true
	defer func() { verbose = oldVerbose }()

	oldCfgFile := cfgFile
	cfgFile = configPath
	defer func() { cfgFile = oldCfgFile }()

	// Capture stderr to verify verbose output
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	_ = initConfig()

	w.Close()
	os.Stderr = oldStderr

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	output := buf.String()

	if !strings.Contains(output, "Using config file:") || !strings.Contains(output, configPath) {
		t.Errorf("Verbose mode should print the config path, got: %q", output)
	}
}

func TestRootCommand_ExecuteWithUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer

	// Copy the command to test without modifying the original
	testCmd := *rootCmd
	testCmd.SetArgs([]string{"unknown-subcommand-xyz"})
	testCmd.SetOut(&bytes.Buffer{})
	testCmd.SetErr(&stderr)

	if err := testCmd.Execute(); err == nil {
		t.Error("Execute with unknown subcommand should return error")
	}
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "API error payload as JSON",
			err: bberrors.Wrap(bberrors.NewAPIErrorWithPayload("Merge", 400,
				[]byte(`{"type":"error","error":{"message":"bad"}}`)), "merge failed"),
			want: "{\n  \"type\": \"error\",\n  \"error\": {\n    \"message\": \"bad\"\n  }\n}\n",
		},
		{
			name: "git failure",
			err:  bberrors.NewGitError([]string{"git", "push", "origin", "feature/x"}, 1, "rejected\n", nil),
			want: "[git push origin feature/x] exited with 1 code\nrejected\n",
		},
		{
			name: "git failure without stderr",
			err:  bberrors.NewGitError([]string{"git", "pull"}, 128, "", nil),
			want: "[git pull] exited with 128 code\n",
		},
		{
			name: "plain error",
			err:  bberrors.New("something broke"),
			want: "something broke\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderError(&buf, tt.err)
			if got := buf.String(); got != tt.want {
				t.Errorf("renderError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderError_APIErrorWithoutPayload(t *testing.T) {
	var buf bytes.Buffer
	renderError(&buf, bberrors.NewAPIErrorWithStatus("GetPullRequest", 404, "Not Found"))

	out := buf.String()
	if !strings.Contains(out, "GetPullRequest") || !strings.Contains(out, "Not Found") {
		t.Errorf("renderError() = %q", out)
	}
}

func TestResetConfig(t *testing.T) {
	viper.Set("bitbucket.username", "x")
	appConfig = testConfig()

	resetConfig()

	if appConfig != nil {
		t.Error("appConfig should be nil after reset")
	}
	if viper.GetString("bitbucket.username") != "" {
		t.Error("viper should be reset")
	}
}
