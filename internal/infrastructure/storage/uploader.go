package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Uploader 样本文件写入接口。分块续传由外部网关负责，这里只约定落盘契约。
type Uploader interface {
	// Upload 将文件内容写入样本目录，返回相对存储路径
	Upload(ctx context.Context, orgID, sampleID, filename string, r io.Reader) (string, error)
}

// DirectUploader 单次写入实现
type DirectUploader struct {
	store *Store
}

// NewDirectUploader 创建单次写入上传器
func NewDirectUploader(store *Store) *DirectUploader {
	return &DirectUploader{store: store}
}

// Upload 将文件一次性写入样本 files 目录
func (u *DirectUploader) Upload(ctx context.Context, orgID, sampleID, filename string, r io.Reader) (string, error) {
	_, span := tracer.Start(ctx, "uploader.Upload")
	defer span.End()

	if err := u.store.EnsureSampleDirs(ctx, orgID, sampleID); err != nil {
		return "", err
	}

	// 只取文件名部分，拒绝路径穿越
	name := filepath.Base(filename)
	path := filepath.Join(u.store.SampleDir(orgID, sampleID), "files", name)

	f, err := os.Create(path)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create sample file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to write sample file: %w", err)
	}
	return filepath.Join(orgID, "samples", sampleID, "files", name), nil
}
