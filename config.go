// Configuration for the reactive engine
// 环境变量驱动的配置，支持.env文件
package reactive

import (
	"fmt"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// 默认任务队列初始容量
const defaultQueueCapacity = 16

var queueCapacity int32 = defaultQueueCapacity

// Config 引擎全局配置
type Config struct {
	// LogLevel 日志级别，如debug、info、warn
	LogLevel string `env:"REACTIVE_LOG_LEVEL" envDefault:"info"`
	// LogPretty 是否以控制台友好格式输出日志
	LogPretty bool `env:"REACTIVE_LOG_PRETTY" envDefault:"false"`
	// QueueCapacity 协作式任务队列的初始容量
	QueueCapacity int `env:"REACTIVE_QUEUE_CAPACITY" envDefault:"16"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		QueueCapacity: defaultQueueCapacity,
	}
}

// LoadConfig 从环境变量加载配置，.env文件存在时先行加载
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("reactive: 解析配置失败: %w", err)
	}
	return cfg, nil
}

// MustLoadConfig 加载配置，失败时panic
func MustLoadConfig() Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Configure 应用配置，设置日志器与队列容量
func Configure(cfg Config) {
	if cfg.QueueCapacity > 0 {
		atomic.StoreInt32(&queueCapacity, int32(cfg.QueueCapacity))
	}
	SetLogger(newLogger(cfg))
}

// ConfigureFromEnv 从环境变量加载并应用配置
func ConfigureFromEnv() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	Configure(cfg)
	return nil
}
