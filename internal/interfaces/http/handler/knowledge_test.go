package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"parithera-api/internal/application/retrieval"
)

func newKnowledgeTestRouter(engine *retrieval.Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewKnowledgeHandler(engine)
	r.POST("/v1/organizations/:oid/knowledge", h.Index)
	return r
}

func TestKnowledgeIndex(t *testing.T) {
	t.Run("请求体非法返回 400", func(t *testing.T) {
		r := newKnowledgeTestRouter(retrieval.NewEngine(nil, nil, 0))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/organizations/org-1/knowledge",
			strings.NewReader(`{"topic":"qc"}`))
		req.Header.Set("Content-Type", "application/json")

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("向量存储未配置返回 503", func(t *testing.T) {
		r := newKnowledgeTestRouter(retrieval.NewEngine(nil, nil, 0))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/organizations/org-1/knowledge",
			strings.NewReader(`{"source":"qc-guide.md","topic":"qc","text":"Filter cells below 200 genes."}`))
		req.Header.Set("Content-Type", "application/json")

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("注入的引擎为空时按未配置处理", func(t *testing.T) {
		r := newKnowledgeTestRouter(nil)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/organizations/org-1/knowledge",
			strings.NewReader(`{"source":"qc-guide.md","text":"Filter cells below 200 genes."}`))
		req.Header.Set("Content-Type", "application/json")

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
