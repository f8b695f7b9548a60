package tts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/iabetor/speakbutton/internal/logger"
)

// EdgeEngine 使用微软 Edge 在线朗读服务合成语音，返回 MP3 数据。
// 不需要订阅密钥，请求中的凭据会被忽略。
type EdgeEngine struct {
	voice string
}

// NewEdgeEngine 创建 Edge TTS 引擎，voice 为请求未指定语音时的默认值。
func NewEdgeEngine(voice string) *EdgeEngine {
	return &EdgeEngine{voice: voice}
}

// Synthesize 将文本合成为 MP3 音频。
func (e *EdgeEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	voice := firstNonEmpty(req.Voice, e.voice)
	logger.Debugf("[tts] edge-tts: 正在合成 %d 个字符，语音=%s，请求=%s", len([]rune(req.Text)), voice, req.ID)

	comm, err := edge.NewCommunicate(req.Text, edge.WithVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("[tts] edge-tts 创建实例失败: %w: %w", ErrSynthesisFailed, err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("[tts] edge-tts 开始流式合成失败: %w: %w", ErrSynthesisFailed, err)
	}

	var mp3Buf bytes.Buffer
	for msg := range ch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		// type=="audio" 的条目包含音频数据
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}

	if mp3Buf.Len() == 0 {
		return nil, fmt.Errorf("[tts] edge-tts: 未收到音频数据: %w", ErrSynthesisFailed)
	}

	logger.Debugf("[tts] edge-tts: 收到 %d 字节 MP3 数据", mp3Buf.Len())
	return mp3Buf.Bytes(), nil
}
