// Package storage 提供基于本地私有目录的内容存储
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storage")

// QC 图数据文件名，由 scanpy 预处理流程写入样本目录
const (
	QCGraphPCAVarianceRatio     = "pca_variance_ratio_data"
	QCGraphViolinAndScatterPlot = "violin_and_scatter_plot_data"
	QCGraphHighlyVariableGenes  = "highly_variable_genes_data"
	QCGraphUMAP                 = "umap_data"
)

// QCGraphNames 所有合法的 QC 图名称
var QCGraphNames = []string{
	QCGraphPCAVarianceRatio,
	QCGraphViolinAndScatterPlot,
	QCGraphHighlyVariableGenes,
	QCGraphUMAP,
}

// ValidQCGraph 判断图名称是否合法
func ValidQCGraph(name string) bool {
	for _, n := range QCGraphNames {
		if n == name {
			return true
		}
	}
	return false
}

// Store 私有目录内容存储
//
// 目录布局:
//
//	{root}/{org}/projects/{project}/data/{analysis}.json|.png  分析产物
//	{root}/{org}/projects/{project}/python/script.py           待执行脚本
//	{root}/{org}/samples/{sample}/scanpy/{graph}.json          QC 图数据
//	{root}/{org}/samples/{sample}/files/                       样本原始文件
type Store struct {
	root string
}

// NewStore 创建内容存储
func NewStore(privateRoot string) *Store {
	return &Store{root: privateRoot}
}

// ProjectDataDir 返回项目分析产物目录
func (s *Store) ProjectDataDir(orgID, projectID string) string {
	return filepath.Join(s.root, orgID, "projects", projectID, "data")
}

// ProjectPythonDir 返回项目脚本沙箱目录
func (s *Store) ProjectPythonDir(orgID, projectID string) string {
	return filepath.Join(s.root, orgID, "projects", projectID, "python")
}

// SampleDir 返回样本根目录
func (s *Store) SampleDir(orgID, sampleID string) string {
	return filepath.Join(s.root, orgID, "samples", sampleID)
}

// ArtifactJSONPath 返回分析 JSON 产物路径
func (s *Store) ArtifactJSONPath(orgID, projectID, analysisID string) string {
	return filepath.Join(s.ProjectDataDir(orgID, projectID), analysisID+".json")
}

// ArtifactImagePath 返回分析 PNG 产物路径
func (s *Store) ArtifactImagePath(orgID, projectID, analysisID string) string {
	return filepath.Join(s.ProjectDataDir(orgID, projectID), analysisID+".png")
}

// ReadArtifactJSON 读取分析 JSON 产物，文件缺失返回空内容而非错误
func (s *Store) ReadArtifactJSON(ctx context.Context, orgID, projectID, analysisID string) ([]byte, error) {
	_, span := tracer.Start(ctx, "store.ReadArtifactJSON")
	defer span.End()

	data, err := os.ReadFile(s.ArtifactJSONPath(orgID, projectID, analysisID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read artifact json: %w", err)
	}
	return data, nil
}

// ReadArtifactImage 读取分析 PNG 产物，文件缺失返回空内容而非错误
func (s *Store) ReadArtifactImage(ctx context.Context, orgID, projectID, analysisID string) ([]byte, error) {
	_, span := tracer.Start(ctx, "store.ReadArtifactImage")
	defer span.End()

	data, err := os.ReadFile(s.ArtifactImagePath(orgID, projectID, analysisID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read artifact image: %w", err)
	}
	return data, nil
}

// WriteScript 写入待执行脚本。先清空沙箱目录，保证 worker 只看到本次脚本。
func (s *Store) WriteScript(ctx context.Context, orgID, projectID, script string) error {
	_, span := tracer.Start(ctx, "store.WriteScript")
	defer span.End()

	dir := s.ProjectPythonDir(orgID, projectID)
	if err := os.RemoveAll(dir); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear script dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create script dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "script.py"), []byte(script), 0o644); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write script: %w", err)
	}
	return nil
}

// ReadQCGraph 读取样本的 QC 图 JSON。文件缺失返回 os.ErrNotExist，由上层映射为 404。
func (s *Store) ReadQCGraph(ctx context.Context, orgID, sampleID, graph string) ([]byte, error) {
	_, span := tracer.Start(ctx, "store.ReadQCGraph")
	defer span.End()

	path := filepath.Join(s.SampleDir(orgID, sampleID), "scanpy", graph+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			span.RecordError(err)
		}
		return nil, err
	}
	return data, nil
}

// EnsureSampleDirs 创建样本目录结构
func (s *Store) EnsureSampleDirs(ctx context.Context, orgID, sampleID string) error {
	_, span := tracer.Start(ctx, "store.EnsureSampleDirs")
	defer span.End()

	base := s.SampleDir(orgID, sampleID)
	for _, sub := range []string{"files", "scanpy"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create sample dir: %w", err)
		}
	}
	return nil
}

// RemoveSampleDirs 删除样本目录
func (s *Store) RemoveSampleDirs(ctx context.Context, orgID, sampleID string) error {
	_, span := tracer.Start(ctx, "store.RemoveSampleDirs")
	defer span.End()

	if err := os.RemoveAll(s.SampleDir(orgID, sampleID)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to remove sample dir: %w", err)
	}
	return nil
}
