package tts

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/speakbutton/internal/audio"
	"github.com/iabetor/speakbutton/internal/logger"
)

// SherpaConfig sherpa-onnx 离线 VITS 模型配置。
type SherpaConfig struct {
	Model      string
	Tokens     string
	Lexicon    string
	DataDir    string
	SpeakerID  int
	Speed      float32
	NumThreads int
}

// SherpaEngine 使用 sherpa-onnx 在本地合成语音，不需要网络，返回 WAV 数据。
// 请求中的语音若为数字则作为说话人 ID。
type SherpaEngine struct {
	mu    sync.Mutex
	tts   *sherpa.OfflineTts
	sid   int
	speed float32
}

// NewSherpaEngine 加载离线模型并创建引擎。
func NewSherpaEngine(cfg SherpaConfig) (*SherpaEngine, error) {
	if cfg.Model == "" || cfg.Tokens == "" {
		return nil, fmt.Errorf("[tts] sherpa 需要 model 和 tokens 路径")
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}

	config := sherpa.OfflineTtsConfig{}
	config.Model.Vits.Model = cfg.Model
	config.Model.Vits.Tokens = cfg.Tokens
	config.Model.Vits.Lexicon = cfg.Lexicon
	config.Model.Vits.DataDir = cfg.DataDir
	config.Model.Vits.NoiseScale = 0.667
	config.Model.Vits.NoiseScaleW = 0.8
	config.Model.Vits.LengthScale = 1.0
	config.Model.NumThreads = cfg.NumThreads
	config.Model.Provider = "cpu"
	config.MaxNumSentences = 1

	impl := sherpa.NewOfflineTts(&config)
	if impl == nil {
		return nil, fmt.Errorf("[tts] 创建 sherpa 离线合成器失败，模型: %s", cfg.Model)
	}

	logger.Infof("[tts] sherpa 离线合成器已创建: model=%s sid=%d", cfg.Model, cfg.SpeakerID)

	return &SherpaEngine{
		tts:   impl,
		sid:   cfg.SpeakerID,
		speed: cfg.Speed,
	}, nil
}

// Synthesize 在本地合成语音。模型推理不可中断，ctx 只在开始前检查。
func (e *SherpaEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sid := e.sid
	if v, err := strconv.Atoi(strings.TrimSpace(req.Voice)); err == nil && v >= 0 {
		sid = v
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tts == nil {
		return nil, fmt.Errorf("[tts] sherpa 合成器已关闭: %w", ErrSynthesisFailed)
	}

	logger.Debugf("[tts] sherpa: 正在合成 %d 个字符，sid=%d，请求=%s", len([]rune(req.Text)), sid, req.ID)
	generated := e.tts.Generate(req.Text, sid, e.speed)
	if generated == nil || len(generated.Samples) == 0 {
		return nil, fmt.Errorf("[tts] sherpa: 未生成音频: %w", ErrSynthesisFailed)
	}

	return audio.EncodeWAV(audio.Float32ToPCM16(generated.Samples), generated.SampleRate, 1), nil
}

// Close 释放模型资源。
func (e *SherpaEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tts != nil {
		sherpa.DeleteOfflineTts(e.tts)
		e.tts = nil
	}
	return nil
}
