package user

import (
	"net/http"

	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/auth"
	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/workout"
	"fitlog/fitness-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// latestWorkouts is how many workouts UserFetch returns with the profile
const latestWorkouts = 10

// UserFetch returns the authenticated user with their most recent workouts
func UserFetch(c *gin.Context, d *internal.Deps) {
	user := c.MustGet("user").(*model.User)

	res, err := d.Workouts.Query(c.Request.Context(), user.ID, workout.QueryInput{
		SortBy: "createdAt:desc",
		Limit:  latestWorkouts,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"workouts": res.Results,
	})
}

func UserGet(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	user, err := d.Auth.GetUser(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type updateBody struct {
	Name       *string `json:"name" binding:"omitempty,max=100"`
	FirstName  *string `json:"firstName" binding:"omitempty,max=50"`
	LastName   *string `json:"lastName" binding:"omitempty,max=50"`
	PictureURL *string `json:"pictureUrl" binding:"omitempty,url"`
	Password   *string `json:"password" binding:"omitempty,password"`
}

func UserUpdate(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var data updateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := d.Auth.UpdateUser(c.Request.Context(), userID, c.Param("id"), auth.UpdateInput{
		Name:       data.Name,
		FirstName:  data.FirstName,
		LastName:   data.LastName,
		PictureURL: data.PictureURL,
		Password:   data.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
