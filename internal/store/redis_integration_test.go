//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/funvibe/concepts/internal/catalog"
	"github.com/funvibe/concepts/internal/concepts"
	"github.com/funvibe/concepts/internal/config"
)

type RedisStoreSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(url)
	s.Require().NoError(err)
	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	r := NewRedis(s.client, 0)

	_, found, err := r.Get(ctx, "k")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(r.Put(ctx, "k", unsatisfied))
	got, found, err := r.Get(ctx, "k")
	s.Require().NoError(err)
	s.True(found)
	s.Equal(unsatisfied, got)

	keys, err := s.client.Keys(ctx, config.RedisKeyPrefix+"*").Result()
	s.Require().NoError(err)
	s.Equal([]string{config.RedisKeyPrefix + "k"}, keys)
}

func (s *RedisStoreSuite) TestTTL() {
	ctx := context.Background()
	r := NewRedis(s.client, time.Minute)
	s.Require().NoError(r.Put(ctx, "k", unsatisfied))

	ttl, err := s.client.TTL(ctx, config.RedisKeyPrefix+"k").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisStoreSuite) TestEngineFillsStore() {
	ctx := context.Background()
	r := NewRedis(s.client, 0)
	e := concepts.NewEngine(concepts.Standard(), catalog.MustPrelude(), concepts.WithStore(r))

	v, err := e.EvaluateQuery(ctx, "Ordered<Complex<float>>")
	s.Require().NoError(err)
	s.False(v.Satisfied)

	keys, err := s.client.Keys(ctx, config.RedisKeyPrefix+"*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)
	s.Contains(keys[0], "/Ordered<Complex<float>>")

	fresh := concepts.NewEngine(concepts.Standard(), catalog.MustPrelude(), concepts.WithStore(r))
	again, err := fresh.EvaluateQuery(ctx, "Ordered<Complex<float>>")
	s.Require().NoError(err)
	s.Equal(v, again)
}

func (s *RedisStoreSuite) TestHealthAndClose() {
	ctx := context.Background()
	r := NewRedis(s.client, 0)
	s.NoError(r.Health(ctx))
	s.NoError(r.Close())
	s.NoError(s.client.Ping(ctx).Err())
}
