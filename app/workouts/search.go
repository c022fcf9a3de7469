package workouts

import (
	"net/http"

	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/workout"
	"fitlog/fitness-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type searchQuery struct {
	Name   string `form:"name"`
	Group  string `form:"group"`
	SortBy string `form:"sortBy"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Page   int    `form:"page" binding:"omitempty,min=1,max=1000000"`
}

func WorkoutSearch(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := d.Workouts.Query(c.Request.Context(), userID, workout.QueryInput{
		Name:   q.Name,
		Group:  q.Group,
		SortBy: q.SortBy,
		Limit:  q.Limit,
		Page:   q.Page,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
