package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"yamdb/internal/auth"
	"yamdb/internal/config"
	"yamdb/internal/handler"
	"yamdb/internal/middleware"
	"yamdb/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authService service.AuthService,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	catalogHandler *handler.CatalogHandler,
	titleHandler *handler.TitleHandler,
	reviewHandler *handler.ReviewHandler,
) {
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(requestLogger())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1", middleware.OptionalJWT(jwtService.Secret()), middleware.LoadCaller(authService))

	// Auth routes are rate limited per client IP.
	authGroup := api.Group("/auth")
	if cfg.AuthRateLimit > 0 {
		authGroup.Use(authRateLimiter(cfg.AuthRateLimit))
	}
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/token", authHandler.Token)
	authGroup.POST("/token/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout, middleware.RequireAuth)

	// Users
	api.GET("/users", userHandler.ListUsers)
	api.POST("/users", userHandler.CreateUser)
	api.GET("/users/me", userHandler.GetMe)
	api.PATCH("/users/me", userHandler.UpdateMe)
	api.GET("/users/:username", userHandler.GetUser)
	api.PATCH("/users/:username", userHandler.UpdateUser)
	api.DELETE("/users/:username", userHandler.DeleteUser)

	// Classifiers
	api.GET("/categories", catalogHandler.ListCategories)
	api.POST("/categories", catalogHandler.CreateCategory)
	api.DELETE("/categories/:slug", catalogHandler.DeleteCategory)
	api.GET("/genres", catalogHandler.ListGenres)
	api.POST("/genres", catalogHandler.CreateGenre)
	api.DELETE("/genres/:slug", catalogHandler.DeleteGenre)

	// Titles
	api.GET("/titles", titleHandler.ListTitles)
	api.POST("/titles", titleHandler.CreateTitle)
	api.GET("/titles/:title_id", titleHandler.GetTitle)
	api.PATCH("/titles/:title_id", titleHandler.UpdateTitle)
	api.DELETE("/titles/:title_id", titleHandler.DeleteTitle)

	// Reviews and comments
	reviews := api.Group("/titles/:title_id/reviews")
	reviews.GET("", reviewHandler.ListReviews)
	reviews.POST("", reviewHandler.CreateReview)
	reviews.GET("/:review_id", reviewHandler.GetReview)
	reviews.PATCH("/:review_id", reviewHandler.UpdateReview)
	reviews.DELETE("/:review_id", reviewHandler.DeleteReview)
	reviews.GET("/:review_id/comments", reviewHandler.ListComments)
	reviews.POST("/:review_id/comments", reviewHandler.CreateComment)
	reviews.GET("/:review_id/comments/:comment_id", reviewHandler.GetComment)
	reviews.PATCH("/:review_id/comments/:comment_id", reviewHandler.UpdateComment)
	reviews.DELETE("/:review_id/comments/:comment_id", reviewHandler.DeleteComment)
}

func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.LogAttrs(c.Request().Context(), level, "request",
				slog.String("id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}

// authRateLimiter allows perSecond requests per client IP with a burst of
// the same size.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: burst,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})
}
