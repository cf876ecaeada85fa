package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	readyKey   = "packmirror:jobs"
	delayedKey = "packmirror:jobs:delayed"
)

// RedisQueue is the production queue: ready jobs live on a list,
// delayed jobs on a sorted set scored by their ready time. Dequeue
// promotes due members before popping.
type RedisQueue struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisQueue connects a queue to a Redis URL
// (redis://host:port/db form).
func NewRedisQueue(url string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisQueue{client: redis.NewClient(opts), now: time.Now}, nil
}

func (q *RedisQueue) EnqueueUpdate(ctx context.Context, name string, force bool) error {
	return q.push(ctx, Job{Kind: KindUpdatePackage, Name: name, Force: force}, 0)
}

func (q *RedisQueue) EnqueueDelete(ctx context.Context, paths []string, delay time.Duration) error {
	return q.push(ctx, Job{Kind: KindDeletePaths, Paths: paths}, delay)
}

func (q *RedisQueue) EnqueueDump(ctx context.Context) error {
	return q.push(ctx, Job{Kind: KindDumpProviders}, 0)
}

func (q *RedisQueue) Requeue(ctx context.Context, job Job, delay time.Duration) error {
	job.Attempt++
	return q.push(ctx, job, delay)
}

func (q *RedisQueue) push(ctx context.Context, job Job, delay time.Duration) error {
	data, err := job.encode()
	if err != nil {
		return err
	}
	if delay <= 0 {
		return q.client.LPush(ctx, readyKey, data).Err()
	}
	return q.client.ZAdd(ctx, delayedKey, redis.Z{
		Score:  float64(q.now().Add(delay).Unix()),
		Member: data,
	}).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	if err := q.promoteDue(ctx); err != nil {
		return Job{}, err
	}

	data, err := q.client.RPop(ctx, readyKey).Bytes()
	if err == redis.Nil {
		return Job{}, ErrEmpty
	}
	if err != nil {
		return Job{}, err
	}
	return decodeJob(data)
}

// promoteDue moves delayed jobs whose ready time has passed onto the
// ready list.
func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := q.now().Unix()
	members, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		return err
	}

	for _, member := range members {
		removed, err := q.client.ZRem(ctx, delayedKey, member).Result()
		if err != nil {
			return err
		}
		// another worker may have claimed it between the range and the rem
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, readyKey, member).Err(); err != nil {
			return err
		}
	}
	return nil
}
