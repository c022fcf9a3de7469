package user

import (
	"net/http"

	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/auth"
	"fitlog/fitness-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type registerBody struct {
	Email      string `json:"email" binding:"required,email,max=255"`
	Password   string `json:"password" binding:"required,password"`
	Name       string `json:"name" binding:"max=100"`
	FirstName  string `json:"firstName" binding:"max=50"`
	LastName   string `json:"lastName" binding:"max=50"`
	PictureURL string `json:"pictureUrl" binding:"omitempty,url"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := d.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Email:      data.Email,
		Password:   data.Password,
		Name:       data.Name,
		FirstName:  data.FirstName,
		LastName:   data.LastName,
		PictureURL: data.PictureURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": user,
	})
}

type forgotPasswordBody struct {
	Email string `json:"email" binding:"required,email"`
}

func UserForgotPassword(c *gin.Context, d *internal.Deps) {
	var data forgotPasswordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	if err := d.Auth.ForgotPassword(c.Request.Context(), data.Email); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type tokenQuery struct {
	Token string `form:"token" binding:"required"`
}

type resetPasswordBody struct {
	Password string `json:"password" binding:"required,password"`
}

func UserResetPassword(c *gin.Context, d *internal.Deps) {
	var q tokenQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	var data resetPasswordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	if err := d.Auth.ResetPassword(c.Request.Context(), q.Token, data.Password); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
