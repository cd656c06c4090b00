package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appsvc "anonchat/internal/app"
	"anonchat/internal/bootstrap"
	"anonchat/internal/transport/http/handler"
	"anonchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Observe(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authService := appsvc.NewAuthService(app.Store, app.Mailer, appsvc.AuthOptions{
		JWTSecret:     app.Config.Auth.JWTSecret,
		JWTExpiration: app.Config.JWTExpiration(),
		CodeTTL:       app.Config.VerifyCodeTTL(),
		BcryptCost:    app.Config.Auth.BcryptCost,
	})
	messageService := appsvc.NewMessageService(app.Store, app.Publisher, app.InboxCache)

	registerAPI(router.Group("/api/v1"), app.Config.Auth.JWTSecret,
		handler.NewAuthHandler(authService),
		handler.NewMessageHandler(messageService),
	)
	return router
}

func registerAPI(v1 *gin.RouterGroup, jwtSecret string, authHandler *handler.AuthHandler, messageHandler *handler.MessageHandler) {
	requireAuth := middleware.AuthJWT(jwtSecret)

	v1.POST("/sign-up", authHandler.SignUp)
	v1.POST("/verify-code", authHandler.VerifyCode)
	v1.POST("/sign-in", authHandler.SignIn)
	v1.GET("/check-username-unique", authHandler.CheckUsernameUnique)
	v1.GET("/me", requireAuth, authHandler.Me)

	v1.POST("/send-message", messageHandler.SendMessage)
	v1.GET("/get-messages", requireAuth, messageHandler.GetMessages)
	v1.GET("/accept-messages", requireAuth, messageHandler.GetAcceptMessages)
	v1.POST("/accept-messages", requireAuth, messageHandler.UpdateAcceptMessages)
}
