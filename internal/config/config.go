package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BroadcastLocal = "local"
	BroadcastRedis = "redis"
)

type Config struct {
	LogLevel          string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	SQLiteStoragePath string    `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"classhub.db"`
	MemeDir           string    `yaml:"meme-dir" env:"MEME_DIR" env-default:"static/memes"`
	PublicURL         string    `yaml:"public-url" env:"PUBLIC_URL" env-default:"http://localhost:9090"`
	Broadcast         Broadcast `yaml:"broadcast"`
	Redis             Redis     `yaml:"redis"`
	Points            Points    `yaml:"points"`
}

type Broadcast struct {
	Driver       string `yaml:"driver" env:"BROADCAST_DRIVER" env-default:"local"`
	Channel      string `yaml:"channel" env:"BROADCAST_CHANNEL" env-default:"classhub:broadcast"`
	ClientBuffer int    `yaml:"client-buffer" env:"BROADCAST_CLIENT_BUFFER" env-default:"32"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Points struct {
	Attendance int `yaml:"attendance" env:"POINTS_ATTENDANCE" env-default:"5"`
	Vote       int `yaml:"vote" env:"POINTS_VOTE" env-default:"1"`
	TTTWin     int `yaml:"ttt-win" env:"POINTS_TTT_WIN" env-default:"5"`
	RPSWin     int `yaml:"rps-win" env:"POINTS_RPS_WIN" env-default:"3"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Config) Validate() error {
	switch that.Broadcast.Driver {
	case BroadcastLocal, BroadcastRedis:
	default:
		return fmt.Errorf("unknown broadcast driver %q", that.Broadcast.Driver)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
