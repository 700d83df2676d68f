package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`
	Bidding  BiddingConfig  `mapstructure:"bidding"`
	Instance InstanceConfig `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type NotifierConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type IncrementTier struct {
	Threshold float64 `mapstructure:"threshold"`
	Increment float64 `mapstructure:"increment"`
}

type BiddingConfig struct {
	MaxRetries          int             `mapstructure:"max_retries"`
	RetryBackoff        time.Duration   `mapstructure:"retry_backoff"`
	AllowCancelWithBids bool            `mapstructure:"allow_cancel_with_bids"`
	IncrementTiers      []IncrementTier `mapstructure:"increment_tiers"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("notifier.port", 8081)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("sweeper.interval", 15*time.Second)
	viper.SetDefault("bidding.max_retries", 5)
	viper.SetDefault("bidding.retry_backoff", 20*time.Millisecond)
	viper.SetDefault("bidding.allow_cancel_with_bids", false)
	viper.SetDefault("instance.id", "auction-engine-1")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auction-engine/")

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("notifier.port", "NOTIFIER_PORT")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("sweeper.interval", "SWEEPER_INTERVAL")
	viper.BindEnv("bidding.max_retries", "BIDDING_MAX_RETRIES")
	viper.BindEnv("bidding.retry_backoff", "BIDDING_RETRY_BACKOFF")
	viper.BindEnv("bidding.allow_cancel_with_bids", "BIDDING_ALLOW_CANCEL_WITH_BIDS")
	viper.BindEnv("instance.id", "INSTANCE_ID")

	// Config file is optional; defaults and env vars cover a full setup.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
