package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

const keyPrefix = "echo:"

// RedisKV stocke les clés de session et l'annuaire sous "echo:<clé>".
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	// Pas d'expiration : la session vit jusqu'au logout
	if err := r.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// RedisArchive : index trié par date (ZSET) + corps JSON des posts (HASH).
type RedisArchive struct {
	client   *redis.Client
	indexKey string
	postsKey string
	ttl      time.Duration // on ne garde pas l'infini en RAM
}

func NewRedisArchive(client *redis.Client) *RedisArchive {
	return &RedisArchive{
		client:   client,
		indexKey: keyPrefix + "archive:index",
		postsKey: keyPrefix + "archive:posts",
		ttl:      24 * 30 * time.Hour,
	}
}

func (r *RedisArchive) Append(ctx context.Context, post domain.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	pipe := r.client.Pipeline()

	// 1. Corps du post
	pipe.HSet(ctx, r.postsKey, post.ID, data)

	// 2. Index trié (score = date en ms)
	pipe.ZAdd(ctx, r.indexKey, redis.Z{
		Score:  float64(post.CreatedAt.UnixMilli()),
		Member: post.ID,
	})

	// 3. Refresh TTL
	pipe.Expire(ctx, r.postsKey, r.ttl)
	pipe.Expire(ctx, r.indexKey, r.ttl)

	_, err = pipe.Exec(ctx)
	return err
}

// Page repart du rang courant de after dans l'index : les posts ajoutés
// en tête entre deux pages ne décalent pas la lecture.
func (r *RedisArchive) Page(ctx context.Context, after string, limit int) (ports.ArchivePage, error) {
	if limit <= 0 {
		return ports.ArchivePage{}, nil
	}

	var start int64
	if after != "" {
		rank, err := r.client.ZRevRank(ctx, r.indexKey, after).Result()
		if errors.Is(err, redis.Nil) {
			// Curseur expiré (TTL) : traité comme une archive épuisée
			return ports.ArchivePage{}, nil
		}
		if err != nil {
			return ports.ArchivePage{}, fmt.Errorf("redis zrevrank: %w", err)
		}
		start = rank + 1
	}

	// Bornes Redis inclusives
	ids, err := r.client.ZRevRange(ctx, r.indexKey, start, start+int64(limit)-1).Result()
	if err != nil {
		return ports.ArchivePage{}, fmt.Errorf("redis zrevrange: %w", err)
	}
	if len(ids) == 0 {
		return ports.ArchivePage{}, nil
	}

	values, err := r.client.HMGet(ctx, r.postsKey, ids...).Result()
	if err != nil {
		return ports.ArchivePage{}, fmt.Errorf("redis hmget: %w", err)
	}

	// Le curseur avance sur l'index, même si des corps manquent
	page := ports.ArchivePage{
		Posts: make([]domain.Post, 0, len(values)),
		Next:  ids[len(ids)-1],
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index et hash désynchronisés (TTL, purge manuelle) : on saute
			continue
		}
		var p domain.Post
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return ports.ArchivePage{}, fmt.Errorf("decode archived post %s: %w", ids[i], err)
		}
		page.Posts = append(page.Posts, p)
	}
	return page, nil
}
