package config

import (
	"time"

	"github.com/blues/ifs/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 单链配置
type ChainConfig struct {
	ChainId        int64                     `mapstructure:"chain_id"`        // 链ID
	RpcUrl         string                    `mapstructure:"rpc_url"`         // RPC节点URL
	PrivateKey     string                    `mapstructure:"private_key"`     // 部署账户私钥
	GasLimit       uint64                    `mapstructure:"gas_limit"`       // 默认Gas上限
	GasPriceFloor  int64                     `mapstructure:"gas_price_floor"` // Gas价格下限（wei）
	ReceiptTimeout time.Duration             `mapstructure:"receipt_timeout"` // 回执等待超时
	PollInterval   time.Duration             `mapstructure:"poll_interval"`   // 回执轮询间隔
	Contracts      map[string]ContractConfig `mapstructure:"contracts"`       // 合约配置
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address string `mapstructure:"address"` // 合约地址
	Enabled bool   `mapstructure:"enabled"` // 是否启用此合约
}

type TaskConfig struct {
	Workers          int           `mapstructure:"workers"`           // 工作协程数
	MaxRetries       int           `mapstructure:"max_retries"`       // 最大重试次数
	RetryDelay       time.Duration `mapstructure:"retry_delay"`       // 重试间隔
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"` // outbox分发间隔
	Interval         int           `mapstructure:"interval"`          // 定时任务间隔（秒）
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ifs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "issuer_funding")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.chain_id", 100)
	viper.SetDefault("chain.gas_limit", 3000000)
	viper.SetDefault("chain.gas_price_floor", 1000000000)
	viper.SetDefault("chain.receipt_timeout", "120s")
	viper.SetDefault("chain.poll_interval", "2s")
	viper.SetDefault("task.workers", 8)
	viper.SetDefault("task.max_retries", 3)
	viper.SetDefault("task.retry_delay", "60s")
	viper.SetDefault("task.dispatch_interval", "5s")
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
