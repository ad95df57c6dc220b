package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/morsetrainer/internal/audio"
)

func resetViperForTest() {
	viper.Reset()
	bindFlags()
}

// resetFlags restores every flag to its default between executions
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupTest isolates config lookup in a temp home and working directory.
// A non-empty config is written to the user config file.
func setupTest(t *testing.T, config string) string {
	t.Helper()
	resetViperForTest()
	resetFlags(rootCmd)

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	chdir(t, tmpDir)

	if config != "" {
		configDir := filepath.Join(tmpDir, ".config", "morsetrainer")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatalf("failed to create config dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(config), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}
	return tmpDir
}

// run executes the root command and returns stdout and stderr
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name         string
		shorthand    string
		defaultValue string
	}{
		{"device", "d", "-1"},
		{"frequency", "f", "600"},
		{"wpm", "w", "20"},
		{"debug", "D", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defaultValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defaultValue)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", tt.name)
			}
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{"analyze", "decode", "encode", "pattern", "play", "render", "serve", "table"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	setupTest(t, "")

	out, _, err := run(t, "", "--help")
	if err != nil {
		t.Fatalf("Execute() with --help error = %v", err)
	}
	for _, s := range []string{"morsetrainer", "--wpm", "render", "analyze"} {
		if !strings.Contains(out, s) {
			t.Errorf("help output should contain %q", s)
		}
	}
}

func TestInitConfig(t *testing.T) {
	setupTest(t, "wpm: 25")

	initConfig()

	if viper.GetInt("wpm") != 25 {
		t.Errorf("viper.GetInt(wpm) = %d, want 25", viper.GetInt("wpm"))
	}
}

func TestEncodeCmd(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"args", "", []string{"encode", "sos"}, "... --- ...\n"},
		{"joined args", "", []string{"encode", "sos", "sos"}, "... --- ... / ... --- ...\n"},
		{"stdin", "sos\n", []string{"encode"}, "... --- ...\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t, "")
			out, _, err := run(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("encode error = %v", err)
			}
			if out != tt.want {
				t.Errorf("encode output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestDecodeCmd(t *testing.T) {
	setupTest(t, "")
	out, _, err := run(t, "", "decode", "... --- ... / ........")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if out != "SOS ?\n" {
		t.Errorf("decode output = %q, want %q", out, "SOS ?\n")
	}
}

func TestRenderAndAnalyzeCmd(t *testing.T) {
	dir := setupTest(t, "")
	wavPath := filepath.Join(dir, "a.wav")

	out, _, err := run(t, "", "render", "-o", wavPath, "A")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.Contains(out, "wrote "+wavPath) {
		t.Errorf("render output = %q", out)
	}
	info, err := os.Stat(wavPath)
	if err != nil {
		t.Fatalf("render did not write %s: %v", wavPath, err)
	}
	if info.Size() != 44+59976*2 {
		t.Errorf("wav size = %d, want %d", info.Size(), 44+59976*2)
	}

	resetFlags(rootCmd)
	out, _, err = run(t, "", "analyze", wavPath)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	for _, s := range []string{"Morse:  .-", "Text:   A", "Dot:    60 ms"} {
		if !strings.Contains(out, s) {
			t.Errorf("analyze output missing %q:\n%s", s, out)
		}
	}

	resetFlags(rootCmd)
	out, _, err = run(t, "", "analyze", "--json", wavPath)
	if err != nil {
		t.Fatalf("analyze --json error = %v", err)
	}
	if !strings.Contains(out, `"signal": true`) || !strings.Contains(out, `"morse": ".-"`) {
		t.Errorf("analyze --json output = %s", out)
	}

	resetFlags(rootCmd)
	out, _, err = run(t, "", "analyze", "--segments", wavPath)
	if err != nil {
		t.Fatalf("analyze --segments error = %v", err)
	}
	if !strings.Contains(out, "ON") || !strings.Contains(out, "off") {
		t.Errorf("analyze --segments output = %s", out)
	}
}

func TestRenderCmd_Stdout(t *testing.T) {
	setupTest(t, "")
	out, _, err := run(t, "", "render", "--morse", "-o", "-", ".-")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.HasPrefix(out, "RIFF") {
		t.Errorf("render -o - should write WAV to stdout")
	}
}

func TestRenderCmd_NothingToRender(t *testing.T) {
	setupTest(t, "")
	if _, _, err := run(t, "", "render", "-o", "-", "###"); err == nil {
		t.Error("render of uncodable text should fail")
	}
}

func TestAnalyzeCmd_NoSignal(t *testing.T) {
	dir := setupTest(t, "")
	path := filepath.Join(dir, "silence.wav")
	silence := audio.EncodeWAV(make([]float64, 44100), 44100)
	if err := os.WriteFile(path, silence, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, _, err := run(t, "", "analyze", path)
	if err != nil {
		t.Fatalf("analyze error = %v, want nil for silence", err)
	}
	if !strings.Contains(out, "No signal detected") {
		t.Errorf("analyze output = %q", out)
	}
}

func TestAnalyzeCmd_Errors(t *testing.T) {
	dir := setupTest(t, "")

	if _, _, err := run(t, "", "analyze", filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("analyze of a missing file should fail")
	}

	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("not audio"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	resetFlags(rootCmd)
	_, _, err := run(t, "", "analyze", garbage)
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("analyze of garbage error = %v, want a decode failure", err)
	}
}

func TestPatternCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"text", []string{"pattern", "a"}, "[60,60,180]\n"},
		{"morse", []string{"pattern", "--morse", ". / ."}, "[60,420,60]\n"},
		{"wpm flag", []string{"pattern", "--wpm", "10", "e"}, "[120]\n"},
		{"play vibrate", []string{"play", "--vibrate", "a"}, "[60,60,180]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t, "")
			out, _, err := run(t, "", tt.args...)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestPlayCmd_VibrationFromConfig(t *testing.T) {
	setupTest(t, "vibration: true")
	out, _, err := run(t, "", "play", "e")
	if err != nil {
		t.Fatalf("play error = %v", err)
	}
	if out != "[60]\n" {
		t.Errorf("play output = %q, want the vibration pattern", out)
	}
}

func TestPlayCmd_Bell(t *testing.T) {
	setupTest(t, "")
	out, _, err := run(t, "", "play", "--bell", "--wpm", "60", "et")
	if err != nil {
		t.Fatalf("play --bell error = %v", err)
	}
	if !strings.Contains(out, "\a.") || !strings.Contains(out, "\a-") {
		t.Errorf("play --bell output = %q", out)
	}
}

func TestTableCmd(t *testing.T) {
	setupTest(t, "")
	out, _, err := run(t, "", "table")
	if err != nil {
		t.Fatalf("table error = %v", err)
	}
	for _, s := range []string{"CHAR", "-.-.--", "...-..-", "300"} {
		if !strings.Contains(out, s) {
			t.Errorf("table output missing %q", s)
		}
	}
}

func TestServeCmd_BadAddress(t *testing.T) {
	setupTest(t, "")
	if _, _, err := run(t, "", "serve", "--listen", "127.0.0.1:-1"); err == nil {
		t.Error("serve on an invalid address should fail")
	}
}

func TestServeCmd_ShutsDownOnCancel(t *testing.T) {
	setupTest(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"serve", "--listen", "127.0.0.1:0"})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("serve error = %v, want a clean shutdown", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"wpm out of range", "wpm: 100"},
		{"sample rate out of range", "sample_rate: 1000000"},
		{"bad log format", "log_format: xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t, tt.config)
			_, _, err := run(t, "", "table")
			if err == nil {
				t.Fatal("expected error for invalid config, got nil")
			}
			if !strings.Contains(err.Error(), "config") {
				t.Errorf("expected config error, got: %v", err)
			}
		})
	}
}
