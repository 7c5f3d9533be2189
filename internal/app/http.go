package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"userweb/internal/auth"
	"userweb/internal/config"
	"userweb/internal/logging"
	"userweb/internal/session"
	"userweb/internal/web"
)

func setupHTTP(ctx context.Context, cfg config.Config, log logging.Logger) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessions := session.NewManager(infra.Sessions, cfg.SessionTTL, session.CookieOptions{
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	authService := auth.NewService(infra.DB, log)

	if err := authService.Bootstrap(ctx, cfg.BootstrapUsername, cfg.BootstrapPassword); err != nil {
		return nil, nil, err
	}

	handler := web.NewHandler(authService, sessions, log)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(web.Templates())

	handler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
