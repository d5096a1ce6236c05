package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Game   GameConfig   `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
}

// GameConfig 游戏规则参数
type GameConfig struct {
	SpawnX        float64 `mapstructure:"spawn_x"`
	SpawnY        float64 `mapstructure:"spawn_y"`
	StartingScore int     `mapstructure:"starting_score"`
	DiceSides     int     `mapstructure:"dice_sides"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":3000")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.rpc_address", ":3001")
	viper.SetDefault("game.spawn_x", 850)
	viper.SetDefault("game.spawn_y", 850)
	viper.SetDefault("game.starting_score", 1000)
	viper.SetDefault("game.dice_sides", 6)

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
