package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	tts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"

	"github.com/iabetor/speakbutton/internal/logger"
)

// 腾讯云 PrimaryLanguage 取值
const (
	tencentLangChinese int64 = 1
	tencentLangEnglish int64 = 2
)

// TencentEngine 使用腾讯云 TTS 合成语音，返回 MP3 数据。
// 请求中的语音若为数字则作为音色 ID，否则使用默认音色。
type TencentEngine struct {
	client    *tts.Client
	voiceType int64
	speed     float64
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string
	SecretKey string
	VoiceType int64
	Region    string
	Speed     float64
}

// NewTencentEngine 创建腾讯云 TTS 引擎。
func NewTencentEngine(cfg TencentConfig) (*TencentEngine, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 需要 SecretID 和 SecretKey")
	}
	if cfg.VoiceType == 0 {
		cfg.VoiceType = 1001 // 默认音色：智瑜（女声）
	}
	if cfg.Region == "" {
		cfg.Region = "ap-guangzhou"
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}

	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tts.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("[tts] 创建腾讯云 TTS 客户端失败: %w", err)
	}

	logger.Infof("[tts] 腾讯云 TTS 引擎已初始化 (voice=%d, region=%s)", cfg.VoiceType, cfg.Region)

	return &TencentEngine{
		client:    client,
		voiceType: cfg.VoiceType,
		speed:     cfg.Speed,
	}, nil
}

// Synthesize 将文本合成为 MP3 音频。
func (e *TencentEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	voiceType := tencentVoiceType(req.Voice, e.voiceType)
	logger.Debugf("[tts] 腾讯云 TTS: 正在合成 %d 个字符，音色=%d，请求=%s", len([]rune(req.Text)), voiceType, req.ID)

	request := tts.NewTextToVoiceRequest()
	request.Text = common.StringPtr(req.Text)
	request.SessionId = common.StringPtr(req.ID)
	request.VoiceType = common.Int64Ptr(voiceType)
	request.PrimaryLanguage = common.Int64Ptr(tencentLanguage(req.Language))
	request.Codec = common.StringPtr("mp3")
	request.Speed = common.Float64Ptr(e.speed)
	request.Volume = common.Float64Ptr(5.0)

	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 合成失败: %w: %w", ErrSynthesisFailed, err)
	}
	if response.Response == nil || response.Response.Audio == nil {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS: 未返回音频数据: %w", ErrSynthesisFailed)
	}

	mp3Data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, fmt.Errorf("[tts] Base64 解码失败: %w: %w", ErrSynthesisFailed, err)
	}

	logger.Debugf("[tts] 腾讯云 TTS: 收到 %d 字节 MP3 数据", len(mp3Data))
	return mp3Data, nil
}

func tencentVoiceType(voice string, def int64) int64 {
	if v, err := strconv.ParseInt(strings.TrimSpace(voice), 10, 64); err == nil && v > 0 {
		return v
	}
	return def
}

func tencentLanguage(lang string) int64 {
	if strings.HasPrefix(strings.ToLower(lang), "en") {
		return tencentLangEnglish
	}
	return tencentLangChinese
}
