package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"training_progress_backend/internal/config"
	"training_progress_backend/internal/util"
	"training_progress_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, filename string) error
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	GetURL(filename string) string
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}

	return p.GetURL(filename), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, filename string) error {
	return os.Remove(filepath.Join(p.Config.LocalPath, filename))
}

func (p *LocalStorageProvider) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(p.Config.LocalPath, filepath.FromSlash(filename)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, util.ErrArchiveNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *LocalStorageProvider) GetURL(filename string) string {
	return util.ArchiveRoutePrefix + filename
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, filename string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, filename, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	obj, err := p.Client.GetObject(ctx, p.Config.MinioBucket, filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject 不访问服务端，Stat 才能拿到不存在等错误
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, util.ErrArchiveNotFound
		}
		return nil, err
	}
	return obj, nil
}

// GetURL 桶不对外公开，统一经鉴权接口下载
func (p *MinioStorageProvider) GetURL(filename string) string {
	return util.ArchiveRoutePrefix + filename
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		minioProvider, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init minio storage, falling back to local", zap.Error(err))
			provider = &LocalStorageProvider{Config: &cfg.Storage}
		} else {
			provider = minioProvider
		}
	default:
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}
	return &StorageService{Provider: provider}
}

func (s *StorageService) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	return s.Provider.Upload(ctx, filename, reader, size, contentType)
}

func (s *StorageService) Delete(ctx context.Context, filename string) error {
	return s.Provider.Delete(ctx, filename)
}

// Open 只接受规范化的相对路径，含 .. 或绝对路径的名称按不存在处理
func (s *StorageService) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	if filename == "" || path.Clean("/" + filename)[1:] != filename {
		return nil, util.ErrArchiveNotFound
	}
	return s.Provider.Open(ctx, filename)
}
