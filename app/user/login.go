// Package user contains the account endpoints
package user

import (
	"net/http"

	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := d.Auth.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	tokens, err := d.Auth.IssueAuthPair(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func UserLogout(c *gin.Context, d *internal.Deps) {
	var data refreshBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	if err := d.Auth.Logout(c.Request.Context(), data.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func UserRefreshTokens(c *gin.Context, d *internal.Deps) {
	var data refreshBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	tokens, err := d.Auth.Refresh(c.Request.Context(), data.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

type googleBody struct {
	AccessToken string `json:"accessToken" binding:"required"`
	Register    bool   `json:"register"`
}

func UserGoogle(c *gin.Context, d *internal.Deps) {
	var data googleBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	user, tokens, err := d.Auth.GoogleSignIn(c.Request.Context(), data.AccessToken, data.Register)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}
