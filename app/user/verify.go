package user

import (
	"net/http"

	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserSendVerificationEmail must run behind the JWT middleware
func UserSendVerificationEmail(c *gin.Context, d *internal.Deps) {
	user := c.MustGet("user").(*model.User)

	if err := d.Auth.SendVerificationEmail(c.Request.Context(), user); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func UserVerifyEmail(c *gin.Context, d *internal.Deps) {
	var q tokenQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := d.Auth.VerifyEmail(c.Request.Context(), q.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

type verifyCodeBody struct {
	UserID string `json:"user_id" binding:"required"`
	Code   string `json:"code" binding:"required,otp"`
}

func UserVerifyCode(c *gin.Context, d *internal.Deps) {
	var data verifyCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	user, tokens, err := d.Auth.VerifyCode(c.Request.Context(), data.UserID, data.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

type resendCodeBody struct {
	UserID string `json:"user_id" binding:"required"`
}

func UserResendCode(c *gin.Context, d *internal.Deps) {
	var data resendCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	if err := d.Auth.ResendCode(c.Request.Context(), data.UserID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
