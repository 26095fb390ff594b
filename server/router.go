package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	magicLinkLimiter := limitMagicLinkRate(newMagicLinkStore())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/magic-link", magicLinkLimiter, s.handleRequestMagicLink())
	apirouter.POST("/auth/magic-link/verify", s.handleVerifyMagicLink())
	apirouter.GET("/auth/google/login", s.HandleGoogleLogin())
	apirouter.GET("/auth/google/callback", s.HandleGoogleCallback())

	apirouter.GET("/jobs", s.handleListJobs())
	apirouter.GET("/jobs/:id", s.handleGetJob())
	apirouter.GET("/companies/slug-check", s.handleCheckSlug())
	apirouter.GET("/companies/slug/:slug", s.handleGetCompanyBySlug())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.GET("/me", s.handleShowProfile())
	authorized.PUT("/me", s.handleEditUserProfile())
	authorized.PUT("/me/avatar", s.handleUploadAvatar())
	authorized.GET("/users", s.handleGetAllUsers())

	authorized.POST("/connections", s.handleRequestConnection())
	authorized.PUT("/connections/:id", s.handleRespondToConnection())
	authorized.GET("/connections", s.handleListConnections())
	authorized.GET("/connections/pending", s.handleListPendingConnections())

	authorized.GET("/conversations", s.handleListConversations())
	authorized.POST("/conversations", s.handleStartConversation())
	authorized.GET("/conversations/:id/messages", s.handleListMessages())
	authorized.POST("/conversations/:id/messages", s.handleSendMessage())
	authorized.PUT("/conversations/:id/read", s.handleMarkConversationRead())
	authorized.GET("/messages/unread-count", s.handleUnreadCount())
	authorized.GET("/ws", s.handleWebsocket())

	authorized.POST("/companies", s.handleCreateCompany())
	authorized.GET("/companies", s.handleListMyCompanies())
	authorized.GET("/companies/:id", s.handleGetCompany())
	authorized.PUT("/companies/:id", s.handleUpdateCompany())
	authorized.PUT("/companies/:id/logo", s.handleUploadCompanyLogo())
	authorized.GET("/companies/:id/members", s.handleListMembers())
	authorized.DELETE("/companies/:id/members/:userID", s.handleRemoveMember())
	authorized.POST("/companies/:id/transfer-ownership", s.handleTransferOwnership())
	authorized.POST("/companies/:id/invitations", s.handleInviteMember())
	authorized.GET("/companies/:id/invitations", s.handleListCompanyInvitations())
	authorized.GET("/invitations", s.handleListMyInvitations())
	authorized.PUT("/invitations/:id", s.handleRespondToInvitation())
	authorized.DELETE("/invitations/:id", s.handleCancelInvitation())

	authorized.POST("/companies/:id/productions", s.handleCreateProduction())
	authorized.GET("/companies/:id/productions", s.handleListProductions())
	authorized.GET("/productions/:id", s.handleGetProduction())
	authorized.PUT("/productions/:id", s.handleUpdateProduction())

	authorized.POST("/companies/:id/jobs", s.handleCreateJob())
	authorized.PUT("/jobs/:id", s.handleUpdateJob())
	authorized.POST("/jobs/:id/apply", s.handleApplyToJob())
	authorized.GET("/jobs/:id/applications", s.handleListApplications())
	authorized.GET("/me/applications", s.handleListMyApplications())
	authorized.PUT("/applications/:id/status", s.handleUpdateApplicationStatus())
}
