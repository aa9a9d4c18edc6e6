package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Fanout    FanoutConfig    `mapstructure:"fanout"`
	Counter   CounterConfig   `mapstructure:"counter"`
	Log       LogConfig       `mapstructure:"log"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // debug / release
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres / sqlite
	DSN             string `mapstructure:"dsn"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// 用户快照缓存 TTL（秒），0 表示关闭缓存
	SnapshotTTL int `mapstructure:"snapshot_ttl"`
}

type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	NotificationTopic string   `mapstructure:"notification_topic"`
	SearchSyncTopic   string   `mapstructure:"search_sync_topic"`
	PromotingTopic    string   `mapstructure:"promoting_topic"`
}

type FanoutConfig struct {
	Workers        int `mapstructure:"workers"`
	ClaimLimit     int `mapstructure:"claim_limit"`
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	QueueSize      int `mapstructure:"queue_size"`
	MaxAttempts    int `mapstructure:"max_attempts"`
}

type CounterConfig struct {
	// single：计数与边同事务更新；sharded：热点用户分片计数
	Mode       string `mapstructure:"mode"`
	ShardCount int    `mapstructure:"shard_count"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TelemetryConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Load 读取配置：config.yaml + RELATION_ 前缀环境变量覆盖
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("RELATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺省时仅依赖默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=relation port=5432 sslmode=disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.snapshot_ttl", 600)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.notification_topic", "relation.notifications")
	v.SetDefault("kafka.search_sync_topic", "relation.search-sync")
	v.SetDefault("kafka.promoting_topic", "relation.promoting")
	v.SetDefault("fanout.workers", 4)
	v.SetDefault("fanout.claim_limit", 64)
	v.SetDefault("fanout.poll_interval_ms", 50)
	v.SetDefault("fanout.queue_size", 10000)
	v.SetDefault("fanout.max_attempts", 5)
	v.SetDefault("counter.mode", "single")
	v.SetDefault("counter.shard_count", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("telemetry.service_name", "relation-core")
}
