// Package workouts contains the workout endpoints
package workouts

import (
	"net/http"

	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/workout"
	"fitlog/fitness-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type createBody struct {
	Name        string `json:"name" binding:"required,max=100"`
	Group       string `json:"group" binding:"required"`
	PictureURL  string `json:"pictureUrl" binding:"omitempty,url"`
	Description string `json:"description" binding:"max=1000"`
}

func WorkoutCreate(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var data createBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	w, err := d.Workouts.Create(c.Request.Context(), userID, workout.CreateInput{
		Name:        data.Name,
		Group:       data.Group,
		PictureURL:  data.PictureURL,
		Description: data.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, w)
}

func WorkoutGroups(c *gin.Context, d *internal.Deps) {
	c.JSON(http.StatusOK, gin.H{
		"groups": d.Workouts.Groups(),
	})
}
