// internal/pkg/config/config.go
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 汇总了所有服务共用的基础设施地址。
// 字段均可被同名环境变量覆盖，便于容器化部署。
type Config struct {
	Infra struct {
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"` // "ip1:port1,ip2:port2"
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers string `yaml:"brokers"` // 逗号分隔
		} `yaml:"kafka"`
		Mysql struct {
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Addr     string `yaml:"addr"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Zookeeper struct {
			Servers string `yaml:"servers"` // 逗号分隔
		} `yaml:"zookeeper"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`
}

// Load 读取 CONFIG_FILE 指向的 YAML（可缺省），再应用环境变量覆盖。
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func defaults() Config {
	var cfg Config
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = "localhost:9092"
	cfg.Infra.Mysql.User = "root"
	cfg.Infra.Mysql.Password = "root"
	cfg.Infra.Mysql.Addr = "localhost:3306"
	cfg.Infra.Mysql.Database = "fixflow"
	cfg.Infra.Zookeeper.Servers = "localhost:2181"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	return cfg
}

func applyEnv(cfg *Config) {
	override(&cfg.Infra.Nacos.ServerAddrs, "NACOS_SERVER_ADDRS")
	override(&cfg.Infra.Nacos.Namespace, "NACOS_NAMESPACE")
	override(&cfg.Infra.Nacos.Group, "NACOS_GROUP")
	override(&cfg.Infra.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Infra.Kafka.Brokers, "KAFKA_BROKERS")
	override(&cfg.Infra.Mysql.User, "MYSQL_USER")
	override(&cfg.Infra.Mysql.Password, "MYSQL_PASSWORD")
	override(&cfg.Infra.Mysql.Addr, "MYSQL_ADDR")
	override(&cfg.Infra.Mysql.Database, "MYSQL_DATABASE")
	override(&cfg.Infra.Zookeeper.Servers, "ZK_SERVERS")
	override(&cfg.Infra.Jaeger.Endpoint, "JAEGER_ENDPOINT")
}

func override(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = v
	}
}

// KafkaBrokerList 把逗号分隔的 broker 配置拆成切片。
func (c *Config) KafkaBrokerList() []string {
	return strings.Split(c.Infra.Kafka.Brokers, ",")
}

// ZookeeperServerList 把逗号分隔的 zk 配置拆成切片。
func (c *Config) ZookeeperServerList() []string {
	return strings.Split(c.Infra.Zookeeper.Servers, ",")
}
