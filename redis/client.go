package redis

import (
	"labflux.com/lfx/logger"
	"labflux.com/lfx/utils/maps"
	"context"
	"errors"
	"fmt"
	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
	"time"
)

type DB int
type ReleaseLock func() error

// ErrNotFound is returned when a task key does not exist.
var ErrNotFound = errors.New("redis key not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
	lockRetries    int
}

var ctx = context.Background()

var clientLogger = logger.NewLogger("Redis client")

type Config struct {
	LockExpirationSeconds   int     `envconfig:"LFX_REDIS_LOCK_EXPIRATION" default:"3"`
	LockRetries             int     `envconfig:"LFX_REDIS_LOCK_RETRIES" default:"20"`
	Host                    string  `envconfig:"LFX_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"LFX_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"LFX_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"LFX_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"LFX_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"LFX_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"LFX_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"LFX_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		clientLogger.Err(err).Msg("Could not read redis config")
		return Client{}, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateClusterClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	clientLogger.Info().
		Int("db", int(db)).
		Bool("ha_mode", cfg.HAMode).
		Msg("Created redis client")
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
		lockRetries:    cfg.LockRetries,
	}, nil
}

func CreateClusterClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	options := redis.Options{
		Addr:       addr,
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetPartialDocument reads the JSON document stored at redisKey into doc.
func (client *Client) GetPartialDocument(redisKey string, doc maps.PartialDocument) error {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", redisKey, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", redisKey, err)
	}
	return maps.Decode(b, doc)
}

// UpdatePartialDocument reads, updates and saves the document under the key's
// lock. updateFunc takes doc's concrete type.
func (client *Client) UpdatePartialDocument(
	redisKey string,
	doc maps.PartialDocument,
	updateFunc interface{}) (err error) {
	releaseLock, err := client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()
	if err = client.GetPartialDocument(redisKey, doc); err != nil {
		return err
	}
	if err = maps.ApplyUpdates(doc, updateFunc); err != nil {
		return err
	}
	return client.SaveDoc(redisKey, doc)
}

func (client *Client) Lock(redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), client.lockRetries)
	lock, err := lockCl.Obtain(ctx, LockKey(redisKey), client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", redisKey, err)
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func LockKey(redisKey string) string {
	return fmt.Sprintf("lock:%s", redisKey)
}

func (client *Client) SaveDoc(redisKey string, document maps.PartialDocument) error {
	b, err := maps.Encode(document)
	if err != nil {
		return err
	}
	if err := client.client.Set(ctx, redisKey, b, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", redisKey, err)
	}
	return nil
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
