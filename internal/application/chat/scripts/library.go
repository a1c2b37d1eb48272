// Package scripts 提供预置的 scanpy 分析脚本库
package scripts

import (
	"embed"
	"strings"
	"sync"

	apperrors "parithera-api/pkg/errors"
)

//go:embed templates/*.py
var scriptsFS embed.FS

// 预置脚本名称
const (
	ScriptUMAP        = "parithera_umap"
	ScriptTSNE        = "parithera_tsne"
	ScriptCluster     = "parithera_cluster"
	ScriptLeiden      = "parithera_leiden"
	ScriptMarkerGenes = "parithera_marker_genes"
)

// labels 按匹配优先级排列
var labels = []string{
	ScriptUMAP,
	ScriptTSNE,
	ScriptCluster,
	ScriptLeiden,
	ScriptMarkerGenes,
}

// followups 每个脚本对应的追问建议
var followups = map[string][]string{
	ScriptUMAP: {
		"How can I visualize gene expression data on the UMAP?",
		"Can you perform clustering on the data and visualize it?",
		"How do I save the UMAP coordinates to a file?",
		"How can I change the colormap used in the UMAP plot?",
		"Can you generate a UMAP plot with different sizes for the points?",
	},
	ScriptTSNE: {
		"How do I adjust the perplexity parameter for t-SNE?",
		"Can you compare the t-SNE with UMAP visually?",
		"How can I visualize specific clusters on the t-SNE plot?",
		"What are the differences between t-SNE and UMAP?",
		"How can I export the t-SNE coordinates for further analysis?",
	},
	ScriptCluster: {
		"How can I visualize the clusters?",
		"Can you show me a heatmap of marker genes for each cluster?",
		"How do I find specific cell types within the clusters?",
		"Can you provide a bar plot of cluster sizes?",
		"How can I perform differential expression analysis between clusters?",
	},
	ScriptLeiden: {
		"How can I visualize the Leiden clusters?",
		"What are the key differences between Louvain and Leiden clustering?",
		"How do I interpret the resolution parameter in Leiden clustering?",
		"Can you generate a dot plot of marker genes for each cluster?",
		"How can I validate the stability of the identified clusters?",
	},
	ScriptMarkerGenes: {
		"What are the top marker genes for each cluster?",
		"How can I visualize these marker genes using violin plots?",
		"Can you provide a table of log fold changes for marker genes?",
		"How do I perform gene ontology enrichment analysis on marker genes?",
		"Can you help me with pathway analysis of identified marker genes?",
	},
}

// Script 一个可调度的分析脚本
type Script struct {
	// Name 脚本标签
	Name string
	// Body 脚本内容
	Body string
	// Followups 该脚本的追问建议
	Followups []string
}

// Library 脚本库，内容从内嵌文件加载并缓存
type Library struct {
	mu    sync.RWMutex
	cache map[string]string
}

// NewLibrary 创建脚本库
func NewLibrary() *Library {
	return &Library{cache: make(map[string]string)}
}

// MatchLabel 从分类器回答中识别脚本标签，按子串匹配
func MatchLabel(answer string) (string, bool) {
	for _, label := range labels {
		if strings.Contains(answer, label) {
			return label, true
		}
	}
	return "", false
}

// Labels 返回全部脚本标签
func Labels() []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Choose 从分类器回答中选出脚本及其追问建议
func (l *Library) Choose(answer string) (*Script, error) {
	label, ok := MatchLabel(answer)
	if !ok {
		return nil, apperrors.New(apperrors.CodeUnknownScriptType, "unknown script type").
			WithDetail("classifier answered: " + answer)
	}

	body, err := l.body(label)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnknownScriptType, "failed to load script")
	}

	fu := followups[label]
	out := make([]string, len(fu))
	copy(out, fu)

	return &Script{Name: label, Body: body, Followups: out}, nil
}

func (l *Library) body(label string) (string, error) {
	l.mu.RLock()
	if body, ok := l.cache[label]; ok {
		l.mu.RUnlock()
		return body, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if body, ok := l.cache[label]; ok {
		return body, nil
	}

	b, err := scriptsFS.ReadFile("templates/" + label + ".py")
	if err != nil {
		return "", err
	}
	body := string(b)
	l.cache[label] = body
	return body, nil
}
