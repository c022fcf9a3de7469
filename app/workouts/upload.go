package workouts

import (
	"net/http"

	"fitlog/fitness-api/internal"
	"fitlog/fitness-api/internal/apperr"
	"fitlog/fitness-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// WorkoutUploadPicture reads the "file" field of a multipart form
func WorkoutUploadPicture(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperr.Wrap(apperr.CauseInvalidInput, "No file provided", err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(c, apperr.Internal(err))
		return
	}
	defer f.Close()

	w, err := d.Workouts.SetPicture(c.Request.Context(), userID, c.Param("id"), f)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}
