package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TurnstileConfig struct {
	Enabled     bool
	SecretToken string
	VerifyURL   string
}

type response struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewTurnstileMiddleware checks the TurnstileToken header with Cloudflare
// before letting the request through
func NewTurnstileMiddleware(cfg TurnstileConfig) gin.HandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		requestID := c.GetString("requestID")

		token := c.Request.Header.Get("TurnstileToken")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Missing or invalid turnstile token",
				"requestID": requestID,
			})
			return
		}

		payload := gin.H{
			"secret":   cfg.SecretToken,
			"response": token,
			"remoteip": c.ClientIP(),
		}

		jsonBody, _ := json.Marshal(payload)
		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, cfg.VerifyURL, bytes.NewReader(jsonBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})

			zap.L().Error("Failed to reach turnstile", zap.Error(err), zap.String("requestID", requestID))
			return
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

		var res response
		if err := json.Unmarshal(respBody, &res); err != nil || !res.Success {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})

			zap.L().Debug("Turnstile check failed", zap.Strings("codes", res.ErrorCodes), zap.String("requestID", requestID))
			return
		}

		c.Next()
	}
}
