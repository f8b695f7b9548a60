package tts

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/iabetor/speakbutton/internal/database"
	"github.com/iabetor/speakbutton/internal/logger"
)

// CachedEngine 在底层引擎外包一层 SQLite 缓存。
// 相同引擎、语言、语音和文本的请求直接返回已缓存的音频。
// 缓存读写失败只记录日志，不影响合成。
type CachedEngine struct {
	inner Engine
	db    *database.DB
	name  string
}

// NewCachedEngine 创建缓存引擎。name 参与缓存键，避免不同后端的音频混用。
func NewCachedEngine(inner Engine, db *database.DB, name string) *CachedEngine {
	return &CachedEngine{inner: inner, db: db, name: name}
}

// Synthesize 先查缓存，未命中时调用底层引擎并写入缓存。
func (c *CachedEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	key := c.key(req)

	if data, ok := c.lookup(ctx, key); ok {
		logger.Debugf("[tts] 缓存命中: %s (%d 字节)，请求=%s", key[:12], len(data), req.ID)
		return data, nil
	}

	data, err := c.inner.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, req, data)
	return data, nil
}

func (c *CachedEngine) key(req Request) string {
	h := sha256.New()
	for _, part := range []string{c.name, req.Language, req.Voice, req.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEngine) lookup(ctx context.Context, key string) ([]byte, bool) {
	var data []byte
	err := c.db.QueryRowContext(ctx, `SELECT audio FROM tts_cache WHERE cache_key = ?`, key).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warnf("[tts] 读取缓存失败: %v", err)
		}
		return nil, false
	}

	if _, err := c.db.ExecContext(ctx,
		`UPDATE tts_cache SET hits = hits + 1, last_used = CURRENT_TIMESTAMP WHERE cache_key = ?`, key); err != nil {
		logger.Warnf("[tts] 更新缓存统计失败: %v", err)
	}
	return data, len(data) > 0
}

func (c *CachedEngine) store(ctx context.Context, key string, req Request, data []byte) {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tts_cache (cache_key, engine, language, voice, audio, size)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		key, c.name, req.Language, req.Voice, data, len(data))
	if err != nil {
		logger.Warnf("[tts] 写入缓存失败: %v", err)
	}
}

// Close 关闭底层引擎（如果它持有资源）。数据库由调用方负责关闭。
func (c *CachedEngine) Close() error {
	if closer, ok := c.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
