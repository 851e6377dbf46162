package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DRSN-tech/fontus/internal/cfg"
	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/repository/redis/converter"
	"github.com/DRSN-tech/fontus/pkg/clients"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// setIfNotOlder пишет ARGV[1] в KEYS[1] на ARGV[3] мс, только если в ключе нет записи
// с версией больше ARGV[2]. Возвращает 1, если значение записано.
var setIfNotOlder = r.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, cached = pcall(cjson.decode, cur)
	if ok and type(cached) == 'table' and tonumber(cached['version']) ~= nil
		and tonumber(cached['version']) > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает продукт из кэша. Промах — (nil, nil).
func (c *CacheRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	key := productKey(id)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, key)
		return nil, nil
	}

	if model.Deleted {
		return nil, nil
	}

	if model.ID != id {
		c.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", id, model.ID)
		c.drop(ctx, key)
		return nil, nil
	}

	return converter.ToEntity(&model), nil
}

// SetProduct кэширует продукт на cfg.ProductTTL, если в кэше нет более новой версии.
func (c *CacheRepo) SetProduct(ctx context.Context, product *domain.Product) error {
	return c.setIfNotOlder(ctx, converter.ToRedisModel(product))
}

// SetDeleted заменяет запись меткой удаления с версией удалённого продукта.
func (c *CacheRepo) SetDeleted(ctx context.Context, id, version int64) error {
	return c.setIfNotOlder(ctx, converter.ToTombstone(id, version))
}

func (c *CacheRepo) setIfNotOlder(ctx context.Context, model *converter.ProductRedisModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	stored, err := setIfNotOlder.Run(ctx, c.client.Client,
		[]string{productKey(model.ID)},
		string(data), model.Version, c.cfg.ProductTTL.Milliseconds(),
	).Int()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if stored == 0 {
		c.logger.Debugf("Cache already holds a newer version of product %d, version %d skipped", model.ID, model.Version)
	}

	return nil
}

// DeleteProducts удаляет продукты из кэша по ID
func (c *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CacheRepo) drop(ctx context.Context, key string) {
	if err := c.client.Client.Del(ctx, key).Err(); err != nil {
		c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// productKey возвращает Redis-ключ для одного продукта
func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// NopCacheRepo используется, когда Redis не настроен: всегда промах.
type NopCacheRepo struct{}

func (NopCacheRepo) GetProduct(context.Context, int64) (*domain.Product, error) { return nil, nil }
func (NopCacheRepo) SetProduct(context.Context, *domain.Product) error          { return nil }
func (NopCacheRepo) SetDeleted(context.Context, int64, int64) error             { return nil }
func (NopCacheRepo) DeleteProducts(context.Context, []int64) error              { return nil }
