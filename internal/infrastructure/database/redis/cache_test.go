package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/clauselens/clauselens/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = &Client{rdb: db, logger: logging.NewNopLogger()}
	s.cache = NewCache(s.client, logging.NewNopLogger(), WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedRecord struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	want := cachedRecord{ID: "a1", FileName: "nda.pdf"}
	data, _ := json.Marshal(want)
	s.mock.ExpectGet("test:analysis:a1").SetVal(string(data))

	var got cachedRecord
	err := s.cache.Get(context.Background(), "analysis:a1", &got)

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), want, got)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:analysis:missing").RedisNil()

	var got cachedRecord
	err := s.cache.Get(context.Background(), "analysis:missing", &got)

	assert.ErrorIs(s.T(), err, ErrCacheMiss)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

func (s *CacheTestSuite) TestGet_MalformedPayload() {
	s.mock.ExpectGet("test:analysis:bad").SetVal("{not json")

	var got cachedRecord
	err := s.cache.Get(context.Background(), "analysis:bad", &got)

	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete_NoKeysIsNoop() {
	assert.NoError(s.T(), s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:analysis:a1", "test:analysis:a2").SetVal(2)
	assert.NoError(s.T(), s.cache.Delete(context.Background(), "analysis:a1", "analysis:a2"))
}

func (s *CacheTestSuite) TestExists() {
	s.mock.ExpectExists("test:analysis:a1").SetVal(1)
	ok, err := s.cache.Exists(context.Background(), "analysis:a1")
	assert.NoError(s.T(), err)
	assert.True(s.T(), ok)
}

func (s *CacheTestSuite) TestGetOrSet_SkipsLoaderOnHit() {
	want := cachedRecord{ID: "a1"}
	data, _ := json.Marshal(want)
	s.mock.ExpectGet("test:analysis:a1").SetVal(string(data))

	var got cachedRecord
	err := s.cache.GetOrSet(context.Background(), "analysis:a1", &got, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			s.T().Fatal("loader must not run on cache hit")
			return nil, nil
		})

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), want, got)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	s.mock.ExpectGet("test:analysis:a1").RedisNil()

	var got cachedRecord
	err := s.cache.GetOrSet(context.Background(), "analysis:a1", &got, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			return nil, pkgerrors.New(pkgerrors.ErrCodeDatabaseError, "boom")
		})

	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func (s *CacheTestSuite) TestGetOrSet_LoadsOnMiss() {
	// The jittered TTL makes the exact Set expiration unpredictable, so the
	// Set expectation is registered with a custom matcher that ignores it.
	s.mock.ExpectGet("test:analysis:a1").RedisNil()
	s.mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSet("test:analysis:a1", nil, time.Minute).SetVal("OK")

	want := cachedRecord{ID: "a1", FileName: "msa.pdf"}
	loaded := false
	var got cachedRecord
	err := s.cache.GetOrSet(context.Background(), "analysis:a1", &got, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			loaded = true
			return want, nil
		})

	assert.NoError(s.T(), err)
	assert.True(s.T(), loaded)
	assert.Equal(s.T(), want, got)
}

func (s *CacheTestSuite) TestDeleteByPrefix() {
	s.mock.ExpectScan(0, "test:analysis:*", 100).SetVal([]string{"test:analysis:a1", "test:analysis:a2"}, 0)
	s.mock.ExpectDel("test:analysis:a1", "test:analysis:a2").SetVal(2)

	n, err := s.cache.DeleteByPrefix(context.Background(), "analysis:")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), n)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestJitterTTL_Bounds(t *testing.T) {
	c := &redisCache{}
	for i := 0; i < 100; i++ {
		got := c.jitterTTL(time.Minute)
		if got < 54*time.Second || got > 66*time.Second {
			t.Fatalf("jittered TTL %v outside 10%% of 1m", got)
		}
	}
	if c.jitterTTL(0) != 0 {
		t.Error("zero TTL must stay zero")
	}
}
