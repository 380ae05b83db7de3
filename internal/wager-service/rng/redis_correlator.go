package rng

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "rng:req:"

// RedisCorrelator persiste as entradas token -> wager id no Redis.
// Consume usa GETDEL: a entrada é removida atomicamente antes do motor
// prosseguir, então callbacks duplicados são rejeitados mesmo com o worker
// rodando em mais de uma instância.
type RedisCorrelator struct {
	rdb *redis.Client
}

func NewRedisCorrelator(rdb *redis.Client) *RedisCorrelator {
	return &RedisCorrelator{rdb: rdb}
}

func (c *RedisCorrelator) File(ctx context.Context, token string, wagerID int64) error {
	// Sem TTL: a entrada vive até o callback consumir (não há timeout de
	// resolução no desenho atual)
	return c.rdb.Set(ctx, tokenKeyPrefix+token, strconv.FormatInt(wagerID, 10), 0).Err()
}

func (c *RedisCorrelator) Consume(ctx context.Context, token string) (int64, error) {
	val, err := c.rdb.GetDel(ctx, tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrUnknownRequest
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
