// internal/pkg/registry/client.go
package registry

import (
	"fmt"
	"strconv"
	"strings"

	"fixflow/internal/pkg/logger"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/config_client"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/pkg/errors"
)

// Client 封装了注册中心的命名与配置客户端。
// 解析失败时降级为空列表而不是报错：调用方把空列表当作"稍后重试"，
// 而不是"服务不存在"。
type Client struct {
	namingClient naming_client.INamingClient
	configClient config_client.IConfigClient
	groupName    string

	// 记录本进程已注册的实例，保证 Deregister 可以安全地重复调用
	registered bool
	regService string
	regIP      string
	regPort    int
}

// New 创建注册中心客户端。addrs 格式为 "ip1:port1,ip2:port2"。
func New(addrs, namespaceID, groupName string) (*Client, error) {
	if groupName == "" {
		groupName = "DEFAULT_GROUP"
	}

	var serverConfigs []constant.ServerConfig
	for _, addr := range strings.Split(addrs, ",") {
		parts := strings.Split(addr, ":")
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid registry address format: %s", addr)
		}
		port, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid port in registry address: %s", parts[1])
		}
		serverConfigs = append(serverConfigs, *constant.NewServerConfig(parts[0], port))
	}

	clientConfig := *constant.NewClientConfig(
		constant.WithNotLoadCacheAtStart(true),
		constant.WithLogDir("/tmp/nacos/log"),
		constant.WithCacheDir("/tmp/nacos/cache"),
		constant.WithLogLevel("warn"),
		constant.WithNamespaceId(namespaceID),
	)

	namingClient, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create naming client")
	}

	configClient, err := clients.NewConfigClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config client")
	}

	logger.L().Info().Str("addrs", addrs).Msg("✅ Connected to service registry")
	return &Client{
		namingClient: namingClient,
		configClient: configClient,
		groupName:    groupName,
	}, nil
}

// Register 把本进程注册为 serviceName 下的一个存活实例。
// 健康检查地址固定为 http://ip:port/health，检查间隔与超时由注册中心自己的策略决定。
func (c *Client) Register(serviceName, instanceID, ip string, port int) error {
	success, err := c.namingClient.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          ip,
		Port:        uint64(port),
		ServiceName: serviceName,
		Weight:      10,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true, // 临时节点，心跳断开后自动摘除
		GroupName:   c.groupName,
		Metadata: map[string]string{
			"instanceId":     instanceID,
			"healthCheckUrl": fmt.Sprintf("http://%s:%d/health", ip, port),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to register service %s", serviceName)
	}
	if !success {
		return errors.Errorf("registry did not accept registration for service %s", serviceName)
	}

	c.registered = true
	c.regService = serviceName
	c.regIP = ip
	c.regPort = port
	logger.L().Info().Msgf("✅ Service '%s' registered as %s (%s:%d)", serviceName, instanceID, ip, port)
	return nil
}

// Deregister 注销本进程的实例。幂等：从未注册成功时直接返回 nil。
// 所有关停路径（正常或出错）都必须调用，避免网关继续路由到死实例。
func (c *Client) Deregister() error {
	if !c.registered {
		return nil
	}
	_, err := c.namingClient.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          c.regIP,
		Port:        uint64(c.regPort),
		ServiceName: c.regService,
		Ephemeral:   true,
		GroupName:   c.groupName,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to deregister service %s", c.regService)
	}
	c.registered = false
	logger.L().Info().Msgf("Service '%s' deregistered (%s:%d)", c.regService, c.regIP, c.regPort)
	return nil
}

// ResolveInstances 返回逻辑服务名当前已知实例的 base URL 列表。
// 注册中心不可用或服务名未知时返回空列表，不返回错误。
func (c *Client) ResolveInstances(serviceName string) []string {
	instances, err := c.namingClient.SelectInstances(vo.SelectInstancesParam{
		ServiceName: serviceName,
		GroupName:   c.groupName,
		HealthyOnly: true,
	})
	if err != nil {
		logger.L().Warn().Err(err).Msgf("Failed to resolve instances for '%s', degrading to empty list", serviceName)
		return nil
	}

	urls := make([]string, 0, len(instances))
	for _, ins := range instances {
		urls = append(urls, fmt.Sprintf("http://%s:%d", ins.Ip, ins.Port))
	}
	return urls
}

// GetKV 读取注册中心配置里的一个键值，用于分发 topic/map 等动态名称。
// 读取失败时返回空串，调用方应提供默认值。
func (c *Client) GetKV(key string) string {
	value, err := c.configClient.GetConfig(vo.ConfigParam{
		DataId: key,
		Group:  c.groupName,
	})
	if err != nil {
		logger.L().Warn().Err(err).Msgf("Failed to fetch kv '%s' from registry", key)
		return ""
	}
	return value
}
