package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// RedisRepository 报告存在 Redis 中：有序集合做索引，每条报告一个 JSON 键
type RedisRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis 创建 Redis 存储
func NewRedis(rdb *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "prospect_radar"
	}
	return &RedisRepository{rdb: rdb, prefix: prefix}
}

// OpenRedis 连接 Redis 并检查可用性
func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisRepository, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return NewRedis(rdb, prefix), nil
}

var _ Repository = (*RedisRepository)(nil)

func (r *RedisRepository) indexKey() string { return r.prefix + ":reports:index" }
func (r *RedisRepository) seqKey() string   { return r.prefix + ":reports:seq" }
func (r *RedisRepository) reportKey(id string) string {
	return r.prefix + ":report:" + id
}

func (r *RedisRepository) Prepend(ctx context.Context, reports ...model.AnalysisReport) error {
	if len(reports) == 0 {
		return nil
	}

	keys := make([]string, len(reports))
	seen := make(map[string]struct{}, len(reports))
	for i, rep := range reports {
		if _, ok := seen[rep.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rep.ID)
		}
		seen[rep.ID] = struct{}{}
		keys[i] = r.reportKey(rep.ID)
	}
	n, err := r.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateID
	}

	// 预留一段序号，第一条拿到最大值
	top, err := r.rdb.IncrBy(ctx, r.seqKey(), int64(len(reports))).Result()
	if err != nil {
		return err
	}

	payloads := make([][]byte, len(reports))
	for i, rep := range reports {
		if payloads[i], err = json.Marshal(rep); err != nil {
			return fmt.Errorf("marshal report %s: %w", rep.ID, err)
		}
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, rep := range reports {
			pipe.Set(ctx, keys[i], payloads[i], 0)
			pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(top - int64(i)), Member: rep.ID})
		}
		return nil
	})
	return err
}

func (r *RedisRepository) List(ctx context.Context) (model.History, error) {
	ids, err := r.rdb.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	history := model.History{}
	if len(ids) == 0 {
		return history, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.reportKey(id)
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// 索引里有但值已丢失，跳过
			continue
		}
		var rep model.AnalysisReport
		if err := json.Unmarshal([]byte(s), &rep); err != nil {
			return nil, fmt.Errorf("decode stored report %s: %w", ids[i], err)
		}
		history = append(history, rep)
	}
	return history, nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.reportKey(id))
		pipe.ZRem(ctx, r.indexKey(), id)
		return nil
	})
	return err
}

func (r *RedisRepository) Clear(ctx context.Context) error {
	ids, err := r.rdb.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	keys := []string{r.indexKey()}
	for _, id := range ids {
		keys = append(keys, r.reportKey(id))
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *RedisRepository) Close() error {
	return r.rdb.Close()
}
