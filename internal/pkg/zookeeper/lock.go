// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const lockRoot = "/fixflow/locks"

// Conn 是对 zk 连接的薄封装。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to zookeeper")
	}
	return &Conn{Conn: conn}, nil
}

// DistributedLock 基于临时顺序节点的分布式锁。
// 用于保证同一资源（如缺件积压的采购下单）同一时刻只有一个实例在操作。
type DistributedLock struct {
	conn     *Conn
	path     string // 例如 /fixflow/locks/backlog-flush
	lockNode string // 成功抢锁后自己创建的节点
}

// NewDistributedLock 创建锁实例并确保锁路径存在。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	if err := ensurePath(conn, lockRoot); err != nil {
		return nil, err
	}
	lockPath := lockRoot + "/" + resourceID
	if err := ensurePath(conn, lockPath); err != nil {
		return nil, err
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

func ensurePath(conn *Conn, path string) error {
	// 逐级创建，已存在不算错误
	acl := zk.WorldACL(zk.PermAll)
	var cur string
	for _, part := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		cur += "/" + part
		if _, err := conn.Create(cur, []byte{}, 0, acl); err != nil && err != zk.ErrNodeExists {
			return errors.Wrapf(err, "failed to create lock path node %s", cur)
		}
	}
	return nil
}

// Lock 抢锁，抢不到则阻塞等待前一个持有者释放，最长等待 30s。
func (l *DistributedLock) Lock() error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return errors.Wrap(err, "failed to create sequential lock node")
	}
	l.lockNode = nodePath

	mySeq, err := parseSeq(nodePath)
	if err != nil {
		return err
	}

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return errors.Wrap(err, "failed to list lock children")
		}

		prevName, err := contenderAhead(children, mySeq)
		if err != nil {
			return err
		}
		if prevName == "" {
			return nil // 序号最小即持锁者
		}

		// 只监听序号紧邻的前一个节点，避免惊群
		exists, _, eventChan, err := l.conn.ExistsW(l.path + "/" + prevName)
		if err != nil {
			return errors.Wrap(err, "failed to watch previous lock node")
		}
		if !exists {
			continue // 前一个节点刚好释放，重新竞争
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(30 * time.Second):
			return errors.New("timeout waiting for lock")
		}
	}
}

// parseSeq 取出顺序节点名末尾的序号。受保护节点名形如
// _c_<guid>-lock-<seq>，按字符串排序会被 guid 主导，必须按序号比较。
func parseSeq(node string) (int, error) {
	idx := strings.LastIndex(node, "-")
	if idx < 0 {
		return 0, errors.Errorf("lock node %s has no sequence suffix", node)
	}
	seq, err := strconv.Atoi(node[idx+1:])
	if err != nil {
		return 0, errors.Wrapf(err, "lock node %s has a malformed sequence suffix", node)
	}
	return seq, nil
}

// contenderAhead 在子节点中找序号小于 mySeq 且最接近的竞争者。
// 返回空串表示自己已是最小序号，即锁的持有者。
func contenderAhead(children []string, mySeq int) (string, error) {
	prevSeq := -1
	prevName := ""
	for _, child := range children {
		seq, err := parseSeq(child)
		if err != nil {
			return "", err
		}
		if seq < mySeq && seq > prevSeq {
			prevSeq = seq
			prevName = child
		}
	}
	return prevName, nil
}

// Unlock 释放锁。节点已不存在时视为成功。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	if err := l.conn.Delete(l.lockNode, -1); err != nil && err != zk.ErrNoNode {
		return errors.Wrap(err, "failed to delete lock node")
	}
	l.lockNode = ""
	return nil
}
