package audio

import (
	"encoding/binary"
	"math"
)

// PCM16ToFloat32 将 signed 16-bit LE 交错 PCM 转换为 [-1.0, 1.0] 的单声道 float32。
// 多声道时逐帧取平均；不完整的尾部帧会被丢弃。
func PCM16ToFloat32(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frameBytes := 2 * channels
	numFrames := len(pcm) / frameBytes
	out := make([]float32, numFrames)

	for i := 0; i < numFrames; i++ {
		var sum float32
		base := i * frameBytes
		for c := 0; c < channels; c++ {
			off := base + 2*c
			sum += float32(int16(binary.LittleEndian.Uint16(pcm[off : off+2])))
		}
		out[i] = sum / float32(channels) / math.MaxInt16
	}
	return out
}

// Float32ToPCM16 将 [-1.0, 1.0] 的 float32 样本转换为 signed 16-bit LE PCM 字节。
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		// 钳位到 [-1.0, 1.0]
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s*math.MaxInt16)))
	}
	return out
}
