package tts

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iabetor/speakbutton/internal/logger"
)

const (
	// azureOutputFormat 请求 24kHz 16-bit 单声道 PCM（带 RIFF 头）。
	azureOutputFormat   = "riff-24khz-16bit-mono-pcm"
	azureEndpointFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	azureUserAgent      = "speakbutton"

	// 错误响应体只截取前 512 字节写入错误信息
	maxErrorBody = 512
)

// AzureConfig 微软认知服务语音合成配置。
// 请求中的凭据优先于这里的默认值。
type AzureConfig struct {
	SubscriptionKey string
	Region          string
	Endpoint        string
	Timeout         time.Duration
}

// AzureEngine 通过认知服务 REST 接口合成语音，返回 RIFF/WAV 数据。
type AzureEngine struct {
	key        string
	region     string
	endpoint   string
	httpClient *http.Client
}

// NewAzureEngine 创建 Azure REST 合成引擎。
func NewAzureEngine(cfg AzureConfig) *AzureEngine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &AzureEngine{
		key:      cfg.SubscriptionKey,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Synthesize 发送一次 SSML 合成请求并返回音频字节。
func (e *AzureEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}

	key := firstNonEmpty(req.Credentials.Key, e.key)
	if key == "" {
		return nil, fmt.Errorf("[tts] azure: 缺少订阅密钥: %w", ErrSynthesisFailed)
	}
	endpoint, err := e.resolveEndpoint(firstNonEmpty(req.Credentials.Region, e.region))
	if err != nil {
		return nil, err
	}

	logger.Debugf("[tts] azure: 正在合成 %d 个字符，语音=%s，语言=%s，请求=%s",
		len([]rune(req.Text)), req.Voice, req.Language, req.ID)

	body := BuildSSML(req.Language, req.Voice, req.Text)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("[tts] azure: 创建请求失败: %w: %w", ErrSynthesisFailed, err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", key)
	httpReq.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("User-Agent", azureUserAgent)
	if req.ID != "" {
		httpReq.Header.Set("X-RequestId", req.ID)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("[tts] azure: 请求失败: %w: %w", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("[tts] azure: 服务返回状态码 %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(msg)), ErrSynthesisFailed)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("[tts] azure: 读取音频失败: %w: %w", ErrSynthesisFailed, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("[tts] azure: 未收到音频数据: %w", ErrSynthesisFailed)
	}

	logger.Debugf("[tts] azure: 收到 %d 字节音频，请求=%s", buf.Len(), req.ID)
	return buf.Bytes(), nil
}

// resolveEndpoint 返回配置的地址，或按区域拼出默认地址。
func (e *AzureEngine) resolveEndpoint(region string) (string, error) {
	if e.endpoint != "" {
		return e.endpoint, nil
	}
	if !validRegion(region) {
		return "", fmt.Errorf("[tts] azure: 无效的区域 %q: %w", region, ErrSynthesisFailed)
	}
	return fmt.Sprintf(azureEndpointFormat, region), nil
}

// validRegion 区域名只能包含字母、数字和连字符，避免拼接出其他主机名。
func validRegion(region string) bool {
	if region == "" {
		return false
	}
	for _, r := range region {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

// BuildSSML 生成合成用的 SSML 文档，语言、语音和文本都经过 XML 转义。
func BuildSSML(language, voice, text string) string {
	lang := escapeXML(language)

	var b strings.Builder
	b.WriteString("<speak version='1.0' xml:lang='")
	b.WriteString(lang)
	b.WriteString("'><voice xml:lang='")
	b.WriteString(lang)
	b.WriteString("' name='")
	b.WriteString(escapeXML(voice))
	b.WriteString("'>")
	b.WriteString(escapeXML(text))
	b.WriteString("</voice></speak>")
	return b.String()
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
