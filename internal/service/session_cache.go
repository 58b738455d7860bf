package service

import (
	"sync"
	"time"

	"scorm_lms_backend/internal/scorm"
)

// SessionCache 按 attempt id 持有活动会话的短时缓存。
// 纯粹是省去一个页面生命周期内反复重建会话的优化，
// 不是正确性依赖：miss 时从持久化的 attempt 重建出行为一致的会话。
// 显式注入而不是全局变量，测试可替换成 NoopSessionCache。
type SessionCache interface {
	Get(attemptID uint) (*scorm.Session, bool)
	Set(attemptID uint, s *scorm.Session)
	Invalidate(attemptID uint)
}

type cacheEntry struct {
	session  *scorm.Session
	expireAt time.Time
}

// MemorySessionCache 进程内 TTL 缓存。会话状态机没法序列化进 redis，
// 所以这层留在进程内，redis 只承担包元数据和进度读缓存。
type MemorySessionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint]*cacheEntry
}

func NewMemorySessionCache(ttl time.Duration) *MemorySessionCache {
	c := &MemorySessionCache{
		ttl:     ttl,
		entries: make(map[uint]*cacheEntry),
	}
	go c.janitor()
	return c
}

func (c *MemorySessionCache) Get(attemptID uint) (*scorm.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[attemptID]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expireAt) {
		delete(c.entries, attemptID)
		return nil, false
	}
	// 活跃会话续期
	e.expireAt = time.Now().Add(c.ttl)
	return e.session, true
}

func (c *MemorySessionCache) Set(attemptID uint, s *scorm.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[attemptID] = &cacheEntry{session: s, expireAt: time.Now().Add(c.ttl)}
}

func (c *MemorySessionCache) Invalidate(attemptID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, attemptID)
}

func (c *MemorySessionCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for id, e := range c.entries {
			if now.After(e.expireAt) {
				delete(c.entries, id)
			}
		}
		c.mu.Unlock()
	}
}

// NoopSessionCache 永远 miss，测试用
type NoopSessionCache struct{}

func (NoopSessionCache) Get(uint) (*scorm.Session, bool) { return nil, false }
func (NoopSessionCache) Set(uint, *scorm.Session)        {}
func (NoopSessionCache) Invalidate(uint)                 {}
