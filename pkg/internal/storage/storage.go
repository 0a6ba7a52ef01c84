// Package storage 聚合对象存储、数据库与消息队列客户端，
// 供摄取与导出管线通过请求上下文访问.
//
// Example:
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//	    // 处理错误
//	}
//	s3Client := mgr.GetS3Client()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"sync"

	dbc "github.com/arqdiario/arqvault/pkg/internal/storage/db"
	mqc "github.com/arqdiario/arqvault/pkg/internal/storage/mq"
	s3c "github.com/arqdiario/arqvault/pkg/internal/storage/s3"
	alog "github.com/arqdiario/arqvault/pkg/log"
)

// Manager 聚合所有存储资源.MQ 可能为 nil（未启用时）.
type Manager struct {
	S3 *s3c.Client
	DB *dbc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		m := &Manager{}

		dbi, e := dbc.New(ctx)
		if e != nil {
			err = e
			return
		}
		m.DB = dbi

		s3i, e := s3c.New(ctx)
		if e != nil {
			err = e
			return
		}
		m.S3 = s3i

		mqi, e := mqc.New(ctx)
		if e != nil {
			err = e
			return
		}
		m.MQ = mqi

		mgr = m

		alog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetMQClient 获取 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}
