// Package router 提供 HTTP 路由配置
package router

import (
	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/interfaces/http/handler"
	"parithera-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
//
// 所有业务路由都挂在 /organizations/:oid 之下，经组织成员角色校验。
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	memberships repository.MembershipRepository,
	projectHandler *handler.ProjectHandler,
	sampleHandler *handler.SampleHandler,
	chatHandler *handler.ChatHandler,
	knowledgeHandler *handler.KnowledgeHandler,
) {
	orgs := v1.Group("/organizations/:oid")
	orgs.Use(middleware.Organization())
	orgs.Use(middleware.RequireOrgRole(memberships, entity.MemberRoleUser))

	// 项目管理
	projects := orgs.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", projectHandler.CreateProject)
		projects.GET("/:pid", projectHandler.GetProject)
		projects.PUT("/:pid", projectHandler.UpdateProject)
		projects.DELETE("/:pid", projectHandler.DeleteProject)

		// 项目-样本关联
		projects.POST("/:pid/samples", projectHandler.LinkSample)
		projects.DELETE("/:pid/samples/:sid", projectHandler.UnlinkSample)

		// 项目对话
		projects.POST("/:pid/chat/ask", chatHandler.Ask)
		projects.GET("/:pid/chat/history", chatHandler.History)
	}

	// 样本管理
	samples := orgs.Group("/samples")
	{
		samples.GET("", sampleHandler.ListSamples)
		samples.POST("", sampleHandler.CreateSample)
		samples.GET("/:sid", sampleHandler.GetSample)
		samples.DELETE("/:sid", sampleHandler.DeleteSample)
		samples.POST("/:sid/files", sampleHandler.UploadFile)
		samples.GET("/:sid/qc", sampleHandler.GetQC)
	}

	// 知识库管理，仅组织管理员可写
	knowledge := orgs.Group("/knowledge")
	knowledge.Use(middleware.RequireOrgRole(memberships, entity.MemberRoleAdmin))
	{
		knowledge.POST("", knowledgeHandler.Index)
	}
}
