// internal/service/orderparts/infrastructure/redis_store.go
package infrastructure

import (
	"context"
	"strconv"

	"fixflow/internal/pkg/apperrors"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// drainScript 原子地读出并删除整个积压 hash，期间到达的上报会落进
// 下一轮积压，不会丢。
var drainScript = redis.NewScript(`
local entries = redis.call('HGETALL', KEYS[1])
if #entries > 0 then
    redis.call('DEL', KEYS[1])
end
return entries
`)

// RedisBacklogStore 是积压存储的 Redis 实现。整个积压放在一个 hash 里，
// hash 名从注册中心 KV 下发，多实例共享。
type RedisBacklogStore struct {
	client *redis.Client
	mapKey string
}

// NewRedisBacklogStore 创建 Redis 积压存储。
func NewRedisBacklogStore(addr, mapKey string) *RedisBacklogStore {
	return &RedisBacklogStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		mapKey: mapKey,
	}
}

// Add 按零件累加缺口，HINCRBY 保证并发上报不丢数。
func (s *RedisBacklogStore) Add(ctx context.Context, parts map[string]int) error {
	pipe := s.client.Pipeline()
	for id, qty := range parts {
		pipe.HIncrBy(ctx, s.mapKey, id, int64(qty))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(apperrors.KindDependency, err, "backlog store unreachable")
	}
	return nil
}

// List 返回积压快照。
func (s *RedisBacklogStore) List(ctx context.Context) (map[string]int, error) {
	fields, err := s.client.HGetAll(ctx, s.mapKey).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "backlog store unreachable")
	}
	return backlogFromFields(fields)
}

// Drain 原子取空积压。
func (s *RedisBacklogStore) Drain(ctx context.Context) (map[string]int, error) {
	result, err := drainScript.Run(ctx, s.client, []string{s.mapKey}).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "backlog store unreachable")
	}

	entries, ok := result.([]interface{})
	if !ok {
		return nil, apperrors.Newf(apperrors.KindDependency, "unexpected result type from drain script: %T", result)
	}

	backlog := make(map[string]int, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		id, _ := entries[i].(string)
		qtyStr, _ := entries[i+1].(string)
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt backlog entry for part %s", id)
		}
		backlog[id] = qty
	}
	return backlog, nil
}

func backlogFromFields(fields map[string]string) (map[string]int, error) {
	backlog := make(map[string]int, len(fields))
	for id, qtyStr := range fields {
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt backlog entry for part %s", id)
		}
		backlog[id] = qty
	}
	return backlog, nil
}
