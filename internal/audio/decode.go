package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

var (
	// ErrUnsupportedFormat 表示音频数据既不是 PCM WAV 也不是 MP3。
	ErrUnsupportedFormat = errors.New("不支持的音频格式")
)

const (
	wavHeaderSize = 44
	wavFormatPCM  = 1
)

// Decode 将合成服务返回的音频负载解码为单声道 float32 样本。
// 支持 RIFF/WAVE（16-bit PCM）和 MP3，格式通过文件头识别。
func Decode(data []byte) ([]float32, int, error) {
	switch {
	case isWAV(data):
		return decodeWAV(data)
	case isMP3(data):
		return decodeMP3(data)
	}
	return nil, 0, fmt.Errorf("[audio] 解码失败 (%d 字节): %w", len(data), ErrUnsupportedFormat)
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && string(data[0:3]) == "ID3" {
		return true
	}
	// MPEG 帧同步字：11 位全 1
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// decodeWAV 逐个遍历 RIFF 块，读取 fmt 与 data。
func decodeWAV(data []byte) ([]float32, int, error) {
	var (
		channels   int
		sampleRate int
		haveFmt    bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		// 流式返回的 WAV 可能把长度写成 0 或 0xFFFFFFFF，按剩余长度处理
		if end > len(data) || end < body || (size == 0 && id == "data") {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, 0, fmt.Errorf("[audio] WAV fmt 块过短: %w", ErrUnsupportedFormat)
			}
			format := binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits := binary.LittleEndian.Uint16(data[body+14:])
			if format != wavFormatPCM || bits != 16 || channels < 1 {
				return nil, 0, fmt.Errorf("[audio] WAV 编码 format=%d bits=%d channels=%d: %w",
					format, bits, channels, ErrUnsupportedFormat)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, fmt.Errorf("[audio] WAV 缺少 fmt 块: %w", ErrUnsupportedFormat)
			}
			return PCM16ToFloat32(data[body:end], channels), sampleRate, nil
		}

		// RIFF 块按偶数字节对齐
		pos = end + (end-body)%2
	}

	return nil, 0, fmt.Errorf("[audio] WAV 缺少 data 块: %w", ErrUnsupportedFormat)
}

// decodeMP3 用 go-mp3 解码，其输出固定为 16-bit LE 立体声。
func decodeMP3(data []byte) ([]float32, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("[audio] MP3 解码失败: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("[audio] 读取 PCM 数据失败: %w", err)
	}

	return PCM16ToFloat32(pcm, 2), decoder.SampleRate(), nil
}

// EncodeWAV 为 16-bit LE PCM 数据加上 44 字节的 RIFF/WAVE 头。
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	if channels < 1 {
		channels = 1
	}
	blockAlign := channels * 2
	out := make([]byte, wavHeaderSize+len(pcm))

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(pcm)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], wavFormatPCM)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)

	return out
}
