package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 是 speakbutton 的顶层配置结构。
type Config struct {
	Control ControlConfig `yaml:"control"`
	TTS     TTSConfig     `yaml:"tts"`
	Audio   AudioConfig   `yaml:"audio"`
	Log     LogConfig     `yaml:"log"`
}

// ControlConfig 是宿主推送给控件的初始参数。
type ControlConfig struct {
	Text      string  `yaml:"text"`
	Language  string  `yaml:"language"`
	Voice     string  `yaml:"voice"`
	AutoSpeak bool    `yaml:"auto_speak"`
	Stroke    string  `yaml:"stroke"`
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
}

// TTSConfig 语音合成配置。
type TTSConfig struct {
	// Engine 可选 azure, edge, tencent, sherpa, piper, say。
	Engine  string        `yaml:"engine"`
	Azure   AzureConfig   `yaml:"azure"`
	Edge    EdgeConfig    `yaml:"edge"`
	Tencent TencentConfig `yaml:"tencent"`
	Sherpa  SherpaConfig  `yaml:"sherpa"`
	Piper   PiperConfig   `yaml:"piper"`
	Say     SayConfig     `yaml:"say"`
	Cache   CacheConfig   `yaml:"cache"`
}

// AzureConfig 微软认知服务 REST 合成配置。
type AzureConfig struct {
	SubscriptionKey string `yaml:"subscription_key"`
	Region          string `yaml:"region"`
	// Endpoint 覆盖默认的 https://{region}.tts.speech.microsoft.com 地址。
	Endpoint   string `yaml:"endpoint"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	Voice string `yaml:"voice"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string  `yaml:"secret_id"`
	SecretKey string  `yaml:"secret_key"`
	VoiceType int64   `yaml:"voice_type"`
	Region    string  `yaml:"region"`
	Speed     float64 `yaml:"speed"`
}

// SherpaConfig sherpa-onnx 离线 VITS 模型配置。
type SherpaConfig struct {
	Model      string  `yaml:"model"`
	Tokens     string  `yaml:"tokens"`
	Lexicon    string  `yaml:"lexicon"`
	DataDir    string  `yaml:"data_dir"`
	SpeakerID  int     `yaml:"speaker_id"`
	Speed      float32 `yaml:"speed"`
	NumThreads int     `yaml:"num_threads"`
}

// PiperConfig Piper TTS 配置。
type PiperConfig struct {
	ModelPath  string `yaml:"model_path"`
	SampleRate int    `yaml:"sample_rate"`
}

// SayConfig macOS say 命令配置。
type SayConfig struct {
	Voice string `yaml:"voice"`
}

// CacheConfig 合成结果缓存配置。
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AudioConfig 音频播放配置。
type AudioConfig struct {
	Channels int `yaml:"channels"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 配置文件同目录下的 .env 会先被加载（不覆盖已有环境变量），
// 之后支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	return Parse(data)
}

// Parse 解析 YAML 配置内容并填充默认值。
func Parse(data []byte) (*Config, error) {
	expanded := os.Expand(string(data), os.Getenv)

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// loadDotEnv 加载 .env 文件，文件不存在时忽略。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("加载环境变量文件 %s 失败: %w", path, err)
	}
	return nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Control.Language == "" {
		cfg.Control.Language = "en-US"
	}
	if cfg.Control.Voice == "" {
		cfg.Control.Voice = "en-US-ChristopherNeural"
	}
	if cfg.Control.Stroke == "" {
		cfg.Control.Stroke = "white"
	}
	if cfg.Control.Width <= 0 {
		cfg.Control.Width = 48
	}
	if cfg.Control.Height <= 0 {
		cfg.Control.Height = 48
	}

	if cfg.TTS.Engine == "" {
		cfg.TTS.Engine = "azure"
	}
	if cfg.TTS.Azure.TimeoutSec == 0 {
		cfg.TTS.Azure.TimeoutSec = 30
	}
	if cfg.TTS.Edge.Voice == "" {
		cfg.TTS.Edge.Voice = cfg.Control.Voice
	}
	if cfg.TTS.Tencent.Region == "" {
		cfg.TTS.Tencent.Region = "ap-guangzhou"
	}
	if cfg.TTS.Tencent.Speed == 0 {
		cfg.TTS.Tencent.Speed = 1.0
	}
	if cfg.TTS.Sherpa.Speed == 0 {
		cfg.TTS.Sherpa.Speed = 1.0
	}
	if cfg.TTS.Sherpa.NumThreads == 0 {
		cfg.TTS.Sherpa.NumThreads = 2
	}
	if cfg.TTS.Piper.SampleRate == 0 {
		cfg.TTS.Piper.SampleRate = 22050
	}
	for _, p := range []*string{
		&cfg.TTS.Sherpa.Model, &cfg.TTS.Sherpa.Tokens, &cfg.TTS.Sherpa.Lexicon,
		&cfg.TTS.Sherpa.DataDir, &cfg.TTS.Piper.ModelPath,
	} {
		*p = expandHome(*p, "")
	}
	cfg.TTS.Cache.Path = expandHome(cfg.TTS.Cache.Path, filepath.Join(".speakbutton", "cache.db"))

	if cfg.Audio.Channels == 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File != "" {
		cfg.Log.File = expandHome(cfg.Log.File, "")
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.TTS.Azure.SubscriptionKey = strings.TrimSpace(cfg.TTS.Azure.SubscriptionKey)
	cfg.TTS.Tencent.SecretID = strings.TrimSpace(cfg.TTS.Tencent.SecretID)
	cfg.TTS.Tencent.SecretKey = strings.TrimSpace(cfg.TTS.Tencent.SecretKey)
}

// expandHome 展开 ~/ 前缀；path 为空时使用主目录下的 def。
func expandHome(path, def string) string {
	home, _ := os.UserHomeDir()
	switch {
	case path == "" && def != "":
		if home == "" {
			return def
		}
		return filepath.Join(home, def)
	case strings.HasPrefix(path, "~/") && home != "":
		// Go 不会自动展开 ~
		return home + path[1:]
	}
	return path
}
