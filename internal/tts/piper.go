package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/iabetor/speakbutton/internal/audio"
	"github.com/iabetor/speakbutton/internal/logger"
)

// PiperEngine 使用 piper CLI 子进程实现离线语音合成，返回 WAV 数据。
type PiperEngine struct {
	binary     string
	modelPath  string
	sampleRate int
}

// NewPiperEngine 创建指定模型的 Piper TTS 引擎。
// sampleRate 是模型输出的采样率，通常为 22050。
func NewPiperEngine(modelPath string, sampleRate int) *PiperEngine {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	return &PiperEngine{binary: "piper", modelPath: modelPath, sampleRate: sampleRate}
}

// Synthesize 调用 piper 输出 signed 16-bit LE 单声道 PCM，并加上 WAV 头。
func (p *PiperEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	logger.Debugf("[tts] piper: 正在合成 %d 个字符，模型=%s", len([]rune(req.Text)), p.modelPath)

	cmd := exec.CommandContext(ctx, p.binary, "--model", p.modelPath, "--output-raw")
	cmd.Stdin = bytes.NewReader([]byte(req.Text))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			logger.Warnf("[tts] piper stderr: %s", stderr.String())
		}
		return nil, fmt.Errorf("[tts] piper 执行失败: %w: %w", ErrSynthesisFailed, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("[tts] piper: 未收到音频数据: %w", ErrSynthesisFailed)
	}

	logger.Debugf("[tts] piper: 收到 %d 字节原始 PCM", stdout.Len())
	return audio.EncodeWAV(stdout.Bytes(), p.sampleRate, 1), nil
}
