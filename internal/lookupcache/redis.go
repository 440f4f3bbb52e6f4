package lookupcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "vodsieve".
	Prefix string
}

// RedisStore keeps payloads as plain Redis strings with native expiry.
// Keys are "<prefix>:<table>:<digest>"; each kind also owns an index set
// "<prefix>:kinds:<kind>" so Invalidate can find its entries.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   options
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, ro RedisOptions, opts ...Option) (*RedisStore, error) {
	if strings.TrimSpace(ro.Addr) == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         ro.Addr,
		Password:     ro.Password,
		DB:           ro.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", ro.Addr, err)
	}
	prefix := strings.TrimSuffix(strings.TrimSpace(ro.Prefix), ":")
	if prefix == "" {
		prefix = "vodsieve"
	}
	return &RedisStore{client: client, prefix: prefix, opts: buildOptions(opts)}, nil
}

func (r *RedisStore) dataKey(table Table, key lookupkey.Key) string {
	return r.prefix + ":" + string(table) + ":" + string(key)
}

func (r *RedisStore) indexKey(kind media.Kind) string {
	return r.prefix + ":kinds:" + string(kind)
}

func (r *RedisStore) tableOf(dataKey string) Table {
	rest := strings.TrimPrefix(dataKey, r.prefix+":")
	if strings.HasPrefix(rest, string(TableDetail)+":") {
		return TableDetail
	}
	return TableSearch
}

func (r *RedisStore) Get(ctx context.Context, table Table, key lookupkey.Key) ([]byte, bool, error) {
	if err := checkTable(table); err != nil {
		return nil, false, err
	}
	payload, err := r.client.Get(ctx, r.dataKey(table, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s cache: %w", table, err)
	}
	return payload, true, nil
}

func (r *RedisStore) Put(ctx context.Context, table Table, kind media.Kind, key lookupkey.Key, payload []byte, ttl time.Duration) error {
	if err := checkTable(table); err != nil {
		return err
	}
	dk := r.dataKey(table, key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dk, payload, r.opts.ttl(ttl))
		pipe.SAdd(ctx, r.indexKey(kind), dk)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %s cache: %w", table, err)
	}
	return nil
}

func (r *RedisStore) Invalidate(ctx context.Context, kind media.Kind) (int64, error) {
	kinds := media.Kinds
	if kind != "" {
		kinds = []media.Kind{kind}
	}
	var removed int64
	for _, k := range kinds {
		idx := r.indexKey(k)
		members, err := r.client.SMembers(ctx, idx).Result()
		if err != nil {
			return removed, fmt.Errorf("list %s cache keys: %w", k, err)
		}
		if len(members) > 0 {
			n, err := r.client.Del(ctx, members...).Result()
			if err != nil {
				return removed, fmt.Errorf("invalidate %s cache: %w", k, err)
			}
			removed += n
		}
		if err := r.client.Del(ctx, idx).Err(); err != nil {
			return removed, fmt.Errorf("drop %s cache index: %w", k, err)
		}
	}
	return removed, nil
}

// Sweep prunes index members whose payload Redis has already expired.
func (r *RedisStore) Sweep(ctx context.Context) (int64, error) {
	var removed int64
	for _, kind := range media.Kinds {
		_, dead, err := r.scanIndex(ctx, kind)
		if err != nil {
			return removed, err
		}
		if len(dead) == 0 {
			continue
		}
		args := make([]any, len(dead))
		for i, member := range dead {
			args[i] = member
		}
		n, err := r.client.SRem(ctx, r.indexKey(kind), args...).Result()
		if err != nil {
			return removed, fmt.Errorf("prune %s cache index: %w", kind, err)
		}
		removed += n
	}
	return removed, nil
}

func (r *RedisStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		Backend: "redis",
		Search:  TableStats{ByKind: make(map[media.Kind]int64)},
		Detail:  TableStats{ByKind: make(map[media.Kind]int64)},
	}
	for _, kind := range media.Kinds {
		live, dead, err := r.scanIndex(ctx, kind)
		if err != nil {
			return Stats{}, err
		}
		for _, member := range live {
			ts := &stats.Search
			if r.tableOf(member) == TableDetail {
				ts = &stats.Detail
			}
			ts.Live++
			ts.ByKind[kind]++
		}
		for _, member := range dead {
			if r.tableOf(member) == TableDetail {
				stats.Detail.Expired++
			} else {
				stats.Search.Expired++
			}
		}
	}
	return stats, nil
}

// scanIndex splits the members of a kind index into keys that still exist
// and keys that have expired.
func (r *RedisStore) scanIndex(ctx context.Context, kind media.Kind) (live, dead []string, err error) {
	members, err := r.client.SMembers(ctx, r.indexKey(kind)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("list %s cache keys: %w", kind, err)
	}
	if len(members) == 0 {
		return nil, nil, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(members))
	for i, member := range members {
		cmds[i] = pipe.Exists(ctx, member)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, nil, fmt.Errorf("check %s cache keys: %w", kind, err)
	}
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			live = append(live, members[i])
		} else {
			dead = append(dead, members[i])
		}
	}
	return live, dead, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
