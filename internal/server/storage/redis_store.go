package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/logger"
)

const (
	// Redis key 前缀
	roomKeyPrefix       = "uno:room:"
	roomIndexKey        = "uno:rooms"
	settlementKeyPrefix = "uno:settlement:"
	claimKeyPrefix      = "uno:claim:"

	// 房间数据过期时间，进行中的对局每次变更都会刷新
	roomExpiration = 24 * time.Hour

	// WATCH 冲突时的重试次数
	maxTxRetries = 5
)

var (
	_ room.Store       = (*RedisStore)(nil)
	_ settlement.Store = (*RedisStore)(nil)
)

// RedisStore 房间快照、结算记录和一次性领奖标记
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 房间存储 ---

// SaveRoom 保存房间快照
func (rs *RedisStore) SaveRoom(ctx context.Context, snap room.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, roomKeyPrefix+snap.ID, data, roomExpiration)
	pipe.SAdd(ctx, roomIndexKey, snap.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// LoadRoom 加载单个房间，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*room.Snapshot, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap room.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &snap, nil
}

// DeleteRoom 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, roomKeyPrefix+roomID)
	pipe.SRem(ctx, roomIndexKey, roomID)
	_, err := pipe.Exec(ctx)
	return err
}

// LoadRooms 加载所有房间。已过期的索引项顺手清掉，损坏的数据跳过
func (rs *RedisStore) LoadRooms(ctx context.Context) ([]room.Snapshot, error) {
	ids, err := rs.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKeyPrefix + id
	}
	values, err := rs.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	snaps := make([]room.Snapshot, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			rs.client.SRem(ctx, roomIndexKey, ids[i])
			continue
		}
		var snap room.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			logger.WithRoom(ids[i]).WithError(err).Warn("房间数据损坏，跳过")
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// --- 结算存储 ---

// SaveSettlement 保存结算记录。WATCH 保护的读-改-写：已领奖的记录不会被旧状态覆盖
func (rs *RedisStore) SaveSettlement(ctx context.Context, s settlement.Settlement) error {
	key := settlementKeyPrefix + s.RoomID
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("序列化结算数据失败: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var existing settlement.Settlement
			if json.Unmarshal(current, &existing) == nil &&
				existing.State == settlement.StateClaimed && s.State != settlement.StateClaimed {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := rs.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("保存结算 %s: %w", s.RoomID, redis.TxFailedErr)
}

// LoadSettlement 加载结算记录，不存在时返回 nil
func (rs *RedisStore) LoadSettlement(ctx context.Context, roomID string) (*settlement.Settlement, error) {
	data, err := rs.client.Get(ctx, settlementKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var s settlement.Settlement
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("反序列化结算数据失败: %w", err)
	}
	return &s, nil
}

// ClaimOnce 一次性领奖标记，只有第一个调用者返回 true
func (rs *RedisStore) ClaimOnce(ctx context.Context, roomID, claimant string) (bool, error) {
	return rs.client.SetNX(ctx, claimKeyPrefix+roomID, claimant, 0).Result()
}

// Ping 健康检查
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}
