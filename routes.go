package edgeblog

import (
	"github.com/labstack/echo/v4"
)

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded admin script
	e.StaticFS("/static", echo.MustSubFS(EmbeddedAssets, "embedded"))
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/post/:slug", a.handlePost)
	e.GET("/images/:filename", a.handleImage)

	// Admin pages
	e.GET(AdminPanelPath, a.handleAdminPanel, a.requirePanelSession)
	e.GET("/admin/login", a.handleLoginForm)
	e.POST("/admin/login", a.handleLogin)
	e.GET("/admin/logout", a.handleLogout)
	e.POST("/admin/logout", a.handleLogout)

	// JSON API
	api := e.Group("/api")
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/:slug", a.handleGetPost)
	api.GET("/settings", a.handleGetSettings)

	session := a.requireAPISession
	api.POST("/posts", a.handleCreatePost, session)
	api.PUT("/posts/:slug", a.handleUpdatePost, session)
	api.DELETE("/posts/:slug", a.handleDeletePost, session)
	api.POST("/upload", a.handleUpload, session)
	api.POST("/settings", a.handleSaveSettings, session)

	// Diagnostics
	api.GET("/test", a.handleSelfTest, session)
	api.GET("/debug/security", a.handleDebugSecurity, session)
	api.GET("/debug/session", a.handleDebugSession, session)
	api.GET("/debug/performance", a.handleDebugPerformance, session)
	api.POST("/debug/clear-sessions", a.handleClearSessions, session)
}
