// internal/pkg/config/config.go
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是服务的完整配置。YAML 文件是唯一事实来源，
// 少数部署相关的字段允许用环境变量覆盖（见 applyEnvOverrides）。
type Config struct {
	Service struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`

	Redis struct {
		Addr string `yaml:"addr"` // 为空则不启用 Redis 快速通道
	} `yaml:"redis"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Zookeeper struct {
		Addrs []string `yaml:"addrs"` // 为空则退化为进程内锁
	} `yaml:"zookeeper"`

	Nacos struct {
		Addrs     string `yaml:"addrs"` // 为空则跳过服务注册
		Namespace string `yaml:"namespace"`
		Group     string `yaml:"group"`
	} `yaml:"nacos"`

	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`

	Lock struct {
		WaitTimeout time.Duration `yaml:"waitTimeout"`
	} `yaml:"lock"`

	Outbox struct {
		PollInterval      time.Duration `yaml:"pollInterval"`
		BatchSize         int           `yaml:"batchSize"`
		RetentionInterval time.Duration `yaml:"retentionInterval"`
		RetentionMaxAge   time.Duration `yaml:"retentionMaxAge"`
	} `yaml:"outbox"`
}

// Load 从 YAML 文件加载配置并应用默认值与环境变量覆盖。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Port == 0 {
		c.Service.Port = 8081
	}
	if c.Lock.WaitTimeout == 0 {
		c.Lock.WaitTimeout = 5 * time.Second
	}
	if c.Outbox.PollInterval == 0 {
		c.Outbox.PollInterval = 2 * time.Second
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 100
	}
	if c.Outbox.RetentionInterval == 0 {
		c.Outbox.RetentionInterval = time.Hour
	}
	if c.Outbox.RetentionMaxAge == 0 {
		c.Outbox.RetentionMaxAge = 7 * 24 * time.Hour
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "order-events"
	}
	if c.Nacos.Group == "" {
		c.Nacos.Group = "DEFAULT_GROUP"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.MySQL.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("NACOS_SERVER_ADDRS"); v != "" {
		c.Nacos.Addrs = v
	}
	if v := os.Getenv("NACOS_NAMESPACE"); v != "" {
		c.Nacos.Namespace = v
	}
	if v := os.Getenv("NACOS_GROUP"); v != "" {
		c.Nacos.Group = v
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		c.Jaeger.Endpoint = v
	}
}
