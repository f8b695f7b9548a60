package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Control.Language", cfg.Control.Language, "en-US"},
		{"Control.Voice", cfg.Control.Voice, "en-US-ChristopherNeural"},
		{"Control.Stroke", cfg.Control.Stroke, "white"},
		{"Control.Width", cfg.Control.Width, 48.0},
		{"Control.Height", cfg.Control.Height, 48.0},
		{"TTS.Engine", cfg.TTS.Engine, "azure"},
		{"TTS.Azure.TimeoutSec", cfg.TTS.Azure.TimeoutSec, 30},
		{"TTS.Edge.Voice", cfg.TTS.Edge.Voice, "en-US-ChristopherNeural"},
		{"TTS.Tencent.Region", cfg.TTS.Tencent.Region, "ap-guangzhou"},
		{"TTS.Sherpa.NumThreads", cfg.TTS.Sherpa.NumThreads, 2},
		{"TTS.Piper.SampleRate", cfg.TTS.Piper.SampleRate, 22050},
		{"Audio.Channels", cfg.Audio.Channels, 1},
		{"Log.Level", cfg.Log.Level, "info"},
	}

	for _, c := range checks {
		switch want := c.want.(type) {
		case int:
			if c.got.(int) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		case float64:
			if c.got.(float64) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		case string:
			if c.got.(string) != want {
				t.Errorf("%s: got %v, want %v", c.name, c.got, want)
			}
		}
	}

	if !strings.HasSuffix(cfg.TTS.Cache.Path, filepath.Join(".speakbutton", "cache.db")) {
		t.Errorf("TTS.Cache.Path: got %q", cfg.TTS.Cache.Path)
	}
	if cfg.TTS.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
}

func TestSetDefaults_DoesNotOverride(t *testing.T) {
	cfg := &Config{
		Control: ControlConfig{Language: "de-DE", Voice: "de-DE-KatjaNeural", Stroke: "#333", Width: 100, Height: 80},
		TTS:     TTSConfig{Engine: "edge", Edge: EdgeConfig{Voice: "custom-voice"}},
		Log:     LogConfig{Level: "debug"},
	}
	setDefaults(cfg)

	if cfg.Control.Language != "de-DE" {
		t.Errorf("Language should not be overridden: got %s", cfg.Control.Language)
	}
	if cfg.Control.Voice != "de-DE-KatjaNeural" {
		t.Errorf("Voice should not be overridden: got %s", cfg.Control.Voice)
	}
	if cfg.Control.Stroke != "#333" {
		t.Errorf("Stroke should not be overridden: got %s", cfg.Control.Stroke)
	}
	if cfg.Control.Width != 100 || cfg.Control.Height != 80 {
		t.Errorf("size should not be overridden: got %vx%v", cfg.Control.Width, cfg.Control.Height)
	}
	if cfg.TTS.Engine != "edge" {
		t.Errorf("TTS.Engine should not be overridden: got %s", cfg.TTS.Engine)
	}
	if cfg.TTS.Edge.Voice != "custom-voice" {
		t.Errorf("TTS.Edge.Voice should not be overridden: got %s", cfg.TTS.Edge.Voice)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level should not be overridden: got %s", cfg.Log.Level)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	yamlContent := `
control:
  text: "Hello"
  language: en-GB
  voice: en-GB-RyanNeural
  auto_speak: true
  stroke: black
  width: 64
  height: 32
tts:
  engine: azure
  azure:
    subscription_key: test-key
    region: westeurope
  cache:
    enabled: true
    path: /tmp/speakbutton-cache.db
log:
  level: debug
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Control.Text != "Hello" {
		t.Errorf("Control.Text: got %q", cfg.Control.Text)
	}
	if !cfg.Control.AutoSpeak {
		t.Error("Control.AutoSpeak: expected true")
	}
	if cfg.Control.Width != 64 || cfg.Control.Height != 32 {
		t.Errorf("size: got %vx%v, want 64x32", cfg.Control.Width, cfg.Control.Height)
	}
	if cfg.TTS.Azure.SubscriptionKey != "test-key" {
		t.Errorf("Azure.SubscriptionKey: got %q", cfg.TTS.Azure.SubscriptionKey)
	}
	if cfg.TTS.Azure.Region != "westeurope" {
		t.Errorf("Azure.Region: got %q", cfg.TTS.Azure.Region)
	}
	if !cfg.TTS.Cache.Enabled || cfg.TTS.Cache.Path != "/tmp/speakbutton-cache.db" {
		t.Errorf("Cache: got %+v", cfg.TTS.Cache)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q, want %q", cfg.Log.Level, "debug")
	}
	// 未设置的字段应使用默认值
	if cfg.TTS.Azure.TimeoutSec != 30 {
		t.Errorf("Azure.TimeoutSec should default to 30, got %d", cfg.TTS.Azure.TimeoutSec)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("SPEAKBUTTON_TEST_KEY", "secret-from-env")

	cfg, err := Parse([]byte(`
tts:
  azure:
    subscription_key: "${SPEAKBUTTON_TEST_KEY}"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.TTS.Azure.SubscriptionKey != "secret-from-env" {
		t.Errorf("expected env var expansion, got %q", cfg.TTS.Azure.SubscriptionKey)
	}
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	const name = "SPEAKBUTTON_DOTENV_REGION"
	t.Setenv(name, "")
	os.Unsetenv(name)
	t.Cleanup(func() { os.Unsetenv(name) })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(name+"=eastus\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("tts:\n  azure:\n    region: ${"+name+"}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TTS.Azure.Region != "eastus" {
		t.Errorf("expected region from .env, got %q", cfg.TTS.Azure.Region)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("control: [unclosed")); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestSetDefaults_TrimsKeys(t *testing.T) {
	cfg := &Config{
		TTS: TTSConfig{
			Azure:   AzureConfig{SubscriptionKey: "  key-with-spaces  "},
			Tencent: TencentConfig{SecretID: " id\n", SecretKey: "\tkey "},
		},
	}
	setDefaults(cfg)
	if cfg.TTS.Azure.SubscriptionKey != "key-with-spaces" {
		t.Errorf("expected trimmed subscription key, got %q", cfg.TTS.Azure.SubscriptionKey)
	}
	if cfg.TTS.Tencent.SecretID != "id" || cfg.TTS.Tencent.SecretKey != "key" {
		t.Errorf("expected trimmed tencent secrets, got %q / %q", cfg.TTS.Tencent.SecretID, cfg.TTS.Tencent.SecretKey)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory")
	}
	if got := expandHome("~/x/cache.db", ""); got != filepath.Join(home, "x", "cache.db") {
		t.Errorf("expandHome(~/x/cache.db) = %q", got)
	}
	if got := expandHome("/abs/cache.db", "ignored"); got != "/abs/cache.db" {
		t.Errorf("absolute path should be kept, got %q", got)
	}
}

func TestSetDefaults_ExpandsModelPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory")
	}
	cfg := &Config{}
	cfg.TTS.Sherpa.Model = "~/models/vits.onnx"
	cfg.TTS.Piper.ModelPath = "~/models/piper.onnx"
	setDefaults(cfg)

	if cfg.TTS.Sherpa.Model != filepath.Join(home, "models", "vits.onnx") {
		t.Errorf("sherpa model not expanded: %q", cfg.TTS.Sherpa.Model)
	}
	if cfg.TTS.Piper.ModelPath != filepath.Join(home, "models", "piper.onnx") {
		t.Errorf("piper model not expanded: %q", cfg.TTS.Piper.ModelPath)
	}
	if cfg.TTS.Sherpa.Tokens != "" {
		t.Errorf("empty path should stay empty, got %q", cfg.TTS.Sherpa.Tokens)
	}
}
