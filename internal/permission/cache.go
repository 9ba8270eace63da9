// Package permission содержит кэш прав доступа ролей к разделам приложения.
package permission

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mmeshcher/sigecafe-server/internal/model"
)

// DefaultTTL время жизни кэша по умолчанию.
const DefaultTTL = time.Second

// Source описывает хранилище прав доступа.
type Source interface {
	ListPermissions(ctx context.Context) ([]model.Permission, error)
}

// Cache запоминает список прав доступа на короткое время.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu            sync.RWMutex
	lastFetchedAt time.Time
	entries       []model.Permission
}

// NewCache создаёт кэш прав доступа с указанным временем жизни.
func NewCache(source Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// All возвращает все права доступа, обращаясь к хранилищу не чаще раза в ttl.
func (c *Cache) All(ctx context.Context) ([]model.Permission, error) {
	c.mu.RLock()
	if c.entries != nil && c.now().Sub(c.lastFetchedAt) < c.ttl {
		entries := c.entries
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Другая горутина могла обновить кэш, пока мы ждали блокировку.
	if c.entries != nil && c.now().Sub(c.lastFetchedAt) < c.ttl {
		return c.entries, nil
	}

	entries, err := c.source.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.Permission{}
	}

	c.entries = entries
	c.lastFetchedAt = c.now()
	return entries, nil
}

// HasPermission сообщает, открыт ли раздел path для роли.
func (c *Cache) HasPermission(ctx context.Context, path string, role model.Role) (bool, error) {
	entries, err := c.All(ctx)
	if err != nil {
		return false, err
	}

	for _, p := range entries {
		if p.Path == path {
			return slices.Contains(p.Roles, role), nil
		}
	}
	return false, nil
}

// ForRole возвращает права доступа, доступные роли.
func (c *Cache) ForRole(ctx context.Context, role model.Role) ([]model.Permission, error) {
	entries, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]model.Permission, 0, len(entries))
	for _, p := range entries {
		if slices.Contains(p.Roles, role) {
			res = append(res, p)
		}
	}
	return res, nil
}

// Clear сбрасывает кэш.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil
	c.lastFetchedAt = time.Time{}
}
