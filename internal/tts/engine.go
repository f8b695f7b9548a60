package tts

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrEmptyText 表示请求的文本为空，调用方应在合成前检查。
	ErrEmptyText = errors.New("合成文本为空")
	// ErrSynthesisFailed 表示合成服务调用失败（网络错误、非成功状态码或响应异常）。
	ErrSynthesisFailed = errors.New("语音合成失败")
)

// Engine 定义语音合成后端接口。
type Engine interface {
	// Synthesize 将请求中的文本转换为可播放的音频负载（WAV 或 MP3）。
	// 单次调用，内部不重试。
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Credentials 是合成服务的访问凭据。
type Credentials struct {
	Key    string
	Region string
}

// Request 是一次合成请求，每次激活都重新构建，不做持久化。
type Request struct {
	// ID 用于日志关联，REST 后端会作为 X-RequestId 发送。
	ID          string
	Text        string
	Language    string
	Voice       string
	Credentials Credentials
}

// NewRequest 构建带有新请求 ID 的合成请求。
func NewRequest(text, language, voice string, cred Credentials) Request {
	return Request{
		ID:          uuid.NewString(),
		Text:        text,
		Language:    language,
		Voice:       voice,
		Credentials: cred,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
