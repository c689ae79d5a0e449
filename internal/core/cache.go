package core

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"intel_service/internal/domain/model"
)

// Имена операций служат первым компонентом ключа кэша
const (
	OpPredict        = "predict"
	OpBatchPredict   = "batchPredict"
	OpCityRankings   = "getCityRankings"
	OpHourlyPatterns = "getHourlyPatterns"
)

// CacheObserver уведомляется о каждом обращении к кэшу
type CacheObserver interface {
	CacheHit(op string)
	CacheMiss(op string)
}

type cacheEntry struct {
	op  string
	val any
}

// Cache хранит результаты запросов без срока жизни, сброс только явный
type Cache struct {
	mu  sync.RWMutex
	m   map[string]cacheEntry
	obs CacheObserver
}

func NewCache(obs CacheObserver) *Cache {
	return &Cache{m: make(map[string]cacheEntry), obs: obs}
}

func (c *Cache) get(op, key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if c.obs != nil {
		if ok {
			c.obs.CacheHit(op)
		} else {
			c.obs.CacheMiss(op)
		}
	}
	return e.val, ok
}

func (c *Cache) set(op, key string, v any) {
	c.mu.Lock()
	c.m[key] = cacheEntry{op: op, val: v}
	c.mu.Unlock()
}

// Clear очищает кэш целиком
func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Delete удаляет одну запись и сообщает, была ли она
func (c *Cache) Delete(op string, params ...any) bool {
	key := CacheKey(op, params...)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.m[key]
	delete(c.m, key)
	return ok
}

// DeleteOperation удаляет все записи одной операции
func (c *Cache) DeleteOperation(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.m {
		if e.op == op {
			delete(c.m, k)
			n++
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// cached возвращает значение из кэша или вычисляет и сохраняет его.
// Ошибки возвращаются как есть и не кэшируются
func cached[T any](c *Cache, op string, params []any, compute func() (T, error)) (T, error) {
	key := CacheKey(op, params...)
	if v, ok := c.get(op, key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.set(op, key, v)
	return v, nil
}

// CacheKey сериализует операцию и её параметры. Равные значения дают
// один ключ независимо от типа: 3, int64(3) и float64(3) совпадают,
// как и []string с []any из строк
func CacheKey(op string, params ...any) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, op)
	for _, p := range params {
		parts = append(parts, canonicalParam(p))
	}
	return strings.Join(parts, "|")
}

func canonicalParam(p any) string {
	switch v := p.(type) {
	case nil:
		return ""
	case string:
		return v
	case model.ModelID:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []string:
		return "[" + strings.Join(v, ",") + "]"
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(out, ",") + "]"
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = canonicalParam(e)
		}
		return "[" + strings.Join(out, ",") + "]"
	default:
		return fmt.Sprint(v)
	}
}
