package tts

import (
	"fmt"
	"time"

	"github.com/iabetor/speakbutton/internal/config"
)

// NewEngine 根据配置创建合成引擎。
func NewEngine(cfg config.TTSConfig) (Engine, error) {
	switch cfg.Engine {
	case "azure", "":
		return NewAzureEngine(AzureConfig{
			SubscriptionKey: cfg.Azure.SubscriptionKey,
			Region:          cfg.Azure.Region,
			Endpoint:        cfg.Azure.Endpoint,
			Timeout:         time.Duration(cfg.Azure.TimeoutSec) * time.Second,
		}), nil
	case "edge":
		return NewEdgeEngine(cfg.Edge.Voice), nil
	case "tencent":
		e, err := NewTencentEngine(TencentConfig{
			SecretID:  cfg.Tencent.SecretID,
			SecretKey: cfg.Tencent.SecretKey,
			VoiceType: cfg.Tencent.VoiceType,
			Region:    cfg.Tencent.Region,
			Speed:     cfg.Tencent.Speed,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case "sherpa":
		e, err := NewSherpaEngine(SherpaConfig{
			Model:      cfg.Sherpa.Model,
			Tokens:     cfg.Sherpa.Tokens,
			Lexicon:    cfg.Sherpa.Lexicon,
			DataDir:    cfg.Sherpa.DataDir,
			SpeakerID:  cfg.Sherpa.SpeakerID,
			Speed:      cfg.Sherpa.Speed,
			NumThreads: cfg.Sherpa.NumThreads,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case "piper":
		if cfg.Piper.ModelPath == "" {
			return nil, fmt.Errorf("[tts] piper 需要 model_path")
		}
		return NewPiperEngine(cfg.Piper.ModelPath, cfg.Piper.SampleRate), nil
	case "say":
		return NewSayEngine(cfg.Say.Voice), nil
	}
	return nil, fmt.Errorf("[tts] 未知的 TTS 引擎: %s", cfg.Engine)
}
