package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/iabetor/speakbutton/internal/logger"
)

// ErrPlayerClosed 表示播放器已关闭。
var ErrPlayerClosed = errors.New("播放器已关闭")

// Player 使用 malgo (miniaudio) 通过默认扬声器输出音频，实现 Output。
type Player struct {
	ctx      *malgo.AllocatedContext
	channels uint32
	mu       sync.Mutex
	closed   bool
}

// NewPlayer 创建一个新的音频播放实例。
// channels: 输出声道数，单声道样本会复制到每个声道。
func NewPlayer(channels int) (*Player, error) {
	if channels < 1 {
		channels = 1
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("[audio] 初始化播放上下文失败: %w", err)
	}

	return &Player{
		ctx:      ctx,
		channels: uint32(channels),
	}, nil
}

// Play 播放单声道 float32 样本，阻塞直到播放完成或 ctx 被取消。
func (p *Player) Play(ctx context.Context, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	mctx := p.ctx.Context
	p.mu.Unlock()

	pcm := interleave(Float32ToPCM16(samples), int(p.channels))
	pos := 0
	done := make(chan struct{})

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = p.channels
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			need := int(frameCount) * int(p.channels) * 2
			if pos >= len(pcm) {
				clear(output[:need])
				select {
				case done <- struct{}{}:
				default:
				}
				return
			}

			n := copy(output[:need], pcm[pos:])
			// 数据不够时剩余部分填静音
			clear(output[n:need])
			pos += n
		},
	}

	device, err := malgo.InitDevice(mctx, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("[audio] 初始化播放设备失败: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("[audio] 启动播放设备失败: %w", err)
	}
	defer device.Stop()

	select {
	case <-ctx.Done():
		logger.Debugf("[audio] 播放被取消")
		return ctx.Err()
	case <-done:
		logger.Debugf("[audio] 播放完成 (%d 个样本, %d Hz)", len(samples), sampleRate)
		return nil
	}
}

// interleave 把单声道 16-bit PCM 复制到多个声道。
func interleave(mono []byte, channels int) []byte {
	if channels <= 1 {
		return mono
	}
	out := make([]byte, 0, len(mono)*channels)
	for i := 0; i+1 < len(mono); i += 2 {
		for c := 0; c < channels; c++ {
			out = append(out, mono[i], mono[i+1])
		}
	}
	return out
}

// Close 释放所有资源。
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}
