// Package app wires the HTTP surface together
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fitlog/fitness-api/app/root"
	"fitlog/fitness-api/app/user"
	"fitlog/fitness-api/app/workouts"
	"fitlog/fitness-api/config"
	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/pkg/middleware"
	"fitlog/fitness-api/pkg/validators"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// multipartOverhead is added on top of the picture size limit for the
// form boundaries and headers
const multipartOverhead = 64 << 10

// NewRouter builds the engine. ctx bounds the background cleanup of the rate limiter.
func NewRouter(ctx context.Context, d *internal.Deps, cfg *config.Config) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validators.Register(v); err != nil {
			return nil, fmt.Errorf("failed to register validators, %w", err)
		}
	}

	router := gin.New()
	store := NewCacheStore(cfg.Cache)

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORS,
			AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = cfg.Workouts.PictureMaxSize + multipartOverhead

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateLimit * 2,
	})
	go rl.Cleanup(ctx)

	jwt := middleware.NewJWTMiddleware(d.Issuer, d.Stores.Users)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled:     cfg.Turnstile.Enabled,
		SecretToken: cfg.Turnstile.SecretToken,
		VerifyURL:   cfg.Turnstile.VerifyURL,
	})

	v1 := router.Group("/v1", rl.Middleware())
	{
		// HEAD/GET /v1/heartbeat		-> Used to check if the server is alive
		v1.HEAD("/heartbeat", root.Heartbeat)
		v1.GET("/heartbeat", root.Heartbeat)
	}

	a := v1.Group("/auth", middleware.BodySizeLimiter(cfg.Security.BodyLimit))
	{
		// POST /v1/auth/register		-> Registers a new user and mails a verification code
		a.POST("/register", turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /v1/auth/login			-> Logs in a verified user
		a.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /v1/auth/logout			-> Revokes a refresh token
		a.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

		// POST /v1/auth/refresh-tokens		-> Trades a refresh token for a new pair
		a.POST("/refresh-tokens", func(c *gin.Context) { user.UserRefreshTokens(c, d) })

		// POST /v1/auth/forgot-password	-> Mails a password reset link
		a.POST("/forgot-password", turnstile, func(c *gin.Context) { user.UserForgotPassword(c, d) })

		// POST /v1/auth/reset-password		-> Sets a new password with a reset token
		a.POST("/reset-password", func(c *gin.Context) { user.UserResetPassword(c, d) })

		// POST /v1/auth/send-verification-email -> Mails an email verification link
		a.POST("/send-verification-email", jwt, func(c *gin.Context) { user.UserSendVerificationEmail(c, d) })

		// POST /v1/auth/verify-email		-> Marks the email verified with a link token
		a.POST("/verify-email", func(c *gin.Context) { user.UserVerifyEmail(c, d) })

		// POST /v1/auth/verify-code		-> Verifies a user with the mailed code
		a.POST("/verify-code", func(c *gin.Context) { user.UserVerifyCode(c, d) })

		// POST /v1/auth/resend-code		-> Mails a fresh verification code
		a.POST("/resend-code", turnstile, func(c *gin.Context) { user.UserResendCode(c, d) })

		// POST /v1/auth/google			-> Signs in or registers with a Google access token
		a.POST("/google", func(c *gin.Context) { user.UserGoogle(c, d) })
	}

	u := v1.Group("/users", jwt, middleware.BodySizeLimiter(cfg.Security.BodyLimit))
	{
		// GET /v1/users			-> Returns the caller with their latest workouts
		u.GET("", func(c *gin.Context) { user.UserFetch(c, d) })

		// GET /v1/users/:id			-> Returns the caller's own account
		u.GET("/:id", func(c *gin.Context) { user.UserGet(c, d) })

		// PATCH /v1/users/:id			-> Updates the caller's profile or password
		u.PATCH("/:id", func(c *gin.Context) { user.UserUpdate(c, d) })
	}

	w := v1.Group("/workouts")
	{
		// GET /v1/workouts/groups		-> Lists the configured workout groups
		w.GET("/groups", cacheFor(store, 5*60), func(c *gin.Context) { workouts.WorkoutGroups(c, d) })

		// POST /v1/workouts			-> Creates a workout
		w.POST("", jwt, middleware.BodySizeLimiter(cfg.Security.BodyLimit), func(c *gin.Context) { workouts.WorkoutCreate(c, d) })

		// GET /v1/workouts			-> Lists the user's workouts
		w.GET("", jwt, func(c *gin.Context) { workouts.WorkoutSearch(c, d) })

		// PUT /v1/workouts/:id/picture		-> Uploads a workout picture
		w.PUT("/:id/picture", jwt,
			middleware.BodySizeLimiter(cfg.Workouts.PictureMaxSize+multipartOverhead),
			func(c *gin.Context) { workouts.WorkoutUploadPicture(c, d) },
		)
	}

	return router, nil
}

func cacheFor(store persist.CacheStore, sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
