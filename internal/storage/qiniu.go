package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/qiniu/go-sdk/v7/storagev2/credentials"
	"github.com/qiniu/go-sdk/v7/storagev2/http_client"
	"github.com/qiniu/go-sdk/v7/storagev2/uploader"
	"github.com/shaiso/musiclet/internal/config"
)

// qiniuAPI — часть менеджера загрузок Qiniu, которая нужна загрузчику.
type qiniuAPI interface {
	UploadFile(ctx context.Context, path string, objectOptions *uploader.ObjectOptions, returnValue interface{}) error
}

// Qiniu загружает файлы в Qiniu Kodo.
type Qiniu struct {
	manager qiniuAPI
	bucket  string
	domain  string
	prefix  string
}

// NewQiniu создаёт загрузчик Qiniu.
func NewQiniu(cfg config.QiniuConfig) *Qiniu {
	mac := credentials.NewCredentials(cfg.AK, cfg.SK)
	manager := uploader.NewUploadManager(&uploader.UploadManagerOptions{
		Options: http_client.Options{
			Credentials: mac,
		},
	})
	return &Qiniu{
		manager: manager,
		bucket:  cfg.Bucket,
		domain:  strings.TrimRight(cfg.Domain, "/"),
		prefix:  cfg.Prefix,
	}
}

// UploadAudio загружает аудиофайл.
func (u *Qiniu) UploadAudio(ctx context.Context, path, name string) (string, error) {
	return u.upload(ctx, path, name, AudioContentType)
}

// UploadFile загружает файл с типом по расширению.
func (u *Qiniu) UploadFile(ctx context.Context, path, name string) (string, error) {
	return u.upload(ctx, path, name, contentType(name))
}

func (u *Qiniu) upload(ctx context.Context, path, name, ct string) (string, error) {
	key := objectKey(u.prefix, name)
	err := u.manager.UploadFile(ctx, path, &uploader.ObjectOptions{
		BucketName:  u.bucket,
		ObjectName:  &key,
		FileName:    name,
		ContentType: ct,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: qiniu put %s: %v", ErrUpload, key, err)
	}
	return u.domain + "/" + key, nil
}
