// internal/pkg/utils/net.go
package utils

import (
	"net"

	"github.com/pkg/errors"
)

// GetOutboundIP 获取本机对外出口 IP，用于服务注册。
// 通过向外拨一个 UDP "连接" 读取本地地址，不会产生真实流量。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", errors.Wrap(err, "failed to determine outbound ip")
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", errors.New("unexpected local address type")
	}
	return localAddr.IP.String(), nil
}
