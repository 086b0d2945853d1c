// internal/service/inventory/infrastructure/redis_store.go
package infrastructure

import (
	"context"
	"strconv"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/inventory/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	partKeyPrefix        = "inventory:part:"
	reservationKeyPrefix = "inventory:resv:"
	partIndexKey         = "inventory:parts"
)

// reserveScript 在 Redis 内部完成"读可用量-扣减-登记预留"的不可分割单元。
// 并发请求同一零件时由 Redis 的单线程脚本执行天然串行化，不同零件互不影响。
//
// KEYS[1] 零件 hash，KEYS[2] 预留 hash；ARGV[1] 请求数量，ARGV[2] 零件 ID。
// 返回实际扣减量；零件不存在返回 -1。
var reserveScript = redis.NewScript(`
local avail = redis.call('HGET', KEYS[1], 'available')
if not avail then
    return -1
end
avail = tonumber(avail)
local want = tonumber(ARGV[1])
local take = want
if avail < want then
    take = avail
end
if take > 0 then
    redis.call('HINCRBY', KEYS[1], 'available', -take)
    redis.call('HINCRBY', KEYS[2], ARGV[2], take)
end
return take
`)

// releaseScript 原子地把预留 hash 里的数量加回各零件并删除预留记录。
// 返回删除前的预留内容（k1,v1,k2,v2,...），预留不存在时返回空表。
//
// KEYS[1] 预留 hash；ARGV[1] 零件 key 前缀。
var releaseScript = redis.NewScript(`
local entries = redis.call('HGETALL', KEYS[1])
if #entries == 0 then
    return entries
end
for i = 1, #entries, 2 do
    redis.call('HINCRBY', ARGV[1] .. entries[i], 'available', entries[i + 1])
end
redis.call('DEL', KEYS[1])
return entries
`)

// upsertScript 合并写入一条零件记录：数量累加，属性覆盖。
//
// KEYS[1] 零件 hash，KEYS[2] 零件索引集合；
// ARGV: 1 数量, 2 名称, 3 类别, 4 单价, 5 零件 ID。
var upsertScript = redis.NewScript(`
redis.call('HINCRBY', KEYS[1], 'total', ARGV[1])
redis.call('HINCRBY', KEYS[1], 'available', ARGV[1])
redis.call('HSET', KEYS[1], 'name', ARGV[2], 'category', ARGV[3], 'price', ARGV[4])
redis.call('SADD', KEYS[2], ARGV[5])
return redis.status_reply('OK')
`)

// RedisStore 是共享库存存储的 Redis 实现，实现 port.InventoryStore。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 库存存储。
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func partKey(id string) string        { return partKeyPrefix + id }
func reservationKey(id string) string { return reservationKeyPrefix + id }

// GetPart 读取零件记录。
func (s *RedisStore) GetPart(ctx context.Context, partID string) (*domain.PartRecord, error) {
	fields, err := s.client.HGetAll(ctx, partKey(partID)).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "inventory store unreachable")
	}
	if len(fields) == 0 {
		return nil, apperrors.Newf(apperrors.KindNotFound, "part %s not found", partID)
	}
	return recordFromFields(partID, fields)
}

// ListParts 经由索引集合列出全部零件。
func (s *RedisStore) ListParts(ctx context.Context) ([]domain.PartRecord, error) {
	ids, err := s.client.SMembers(ctx, partIndexKey).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "inventory store unreachable")
	}

	parts := make([]domain.PartRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetPart(ctx, id)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				continue // 索引与数据短暂不一致时跳过
			}
			return nil, err
		}
		parts = append(parts, *rec)
	}
	return parts, nil
}

// UpsertPart 合并写入，数量累加。
func (s *RedisStore) UpsertPart(ctx context.Context, rec domain.PartRecord) error {
	err := upsertScript.Run(ctx, s.client,
		[]string{partKey(rec.ID), partIndexKey},
		rec.Total, rec.Name, rec.Category,
		strconv.FormatFloat(rec.UnitPrice, 'f', -1, 64), rec.ID,
	).Err()
	return apperrors.Wrap(apperrors.KindDependency, err, "inventory store unreachable")
}

// Reserve 原子扣减 min(available, qty) 并登记到预留名下。
func (s *RedisStore) Reserve(ctx context.Context, reservationID, partID string, qty int) (int, error) {
	result, err := reserveScript.Run(ctx, s.client,
		[]string{partKey(partID), reservationKey(reservationID)},
		qty, partID,
	).Result()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindDependency, err, "inventory store unreachable")
	}

	taken, ok := result.(int64)
	if !ok {
		return 0, apperrors.Newf(apperrors.KindDependency, "unexpected result type from reserve script: %T", result)
	}
	if taken < 0 {
		return 0, nil // 零件不存在：整单计入缺口
	}
	return int(taken), nil
}

// Release 原子归还并删除预留记录。未知预留返回空映射。
func (s *RedisStore) Release(ctx context.Context, reservationID string) (map[string]int, error) {
	result, err := releaseScript.Run(ctx, s.client,
		[]string{reservationKey(reservationID)},
		partKeyPrefix,
	).Result()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "inventory store unreachable")
	}

	entries, ok := result.([]interface{})
	if !ok {
		return nil, apperrors.Newf(apperrors.KindDependency, "unexpected result type from release script: %T", result)
	}

	restored := make(map[string]int, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		id, _ := entries[i].(string)
		qtyStr, _ := entries[i+1].(string)
		qty, err := strconv.Atoi(qtyStr)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt reservation entry for part %s", id)
		}
		restored[id] = qty
	}
	return restored, nil
}

func recordFromFields(id string, fields map[string]string) (*domain.PartRecord, error) {
	total, err := strconv.Atoi(fields["total"])
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt total for part %s", id)
	}
	available, err := strconv.Atoi(fields["available"])
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt available for part %s", id)
	}
	price, err := strconv.ParseFloat(fields["price"], 64)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt price for part %s", id)
	}
	return &domain.PartRecord{
		ID:        id,
		Name:      fields["name"],
		Category:  fields["category"],
		Total:     total,
		Available: available,
		UnitPrice: price,
	}, nil
}
