package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
	"github.com/cosmosuniversity/studentrecords/internal/repository"
)

// User-facing messages for each failure class. Raw error text never
// reaches the page.
const (
	msgInvalidForm = "Please correct the highlighted fields."
	msgNoID        = "No student id specified."
	msgConflict    = "A student with this id already exists."
	msgNotFound    = "The student no longer exists."
	msgPKMismatch  = "The partition key cannot be changed."
	msgUnavailable = "The student store is unavailable. Please try again."
	msgCreated     = "Student created."
	msgUpdated     = "Student updated."
	msgDeleted     = "Student deleted."
)

const (
	queryParamID    = "id"
	queryParamPK    = "pk"
	queryParamMajor = "major"
)

// classifyError maps a repository error to a status code and message.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrInvalidArgument):
		return http.StatusBadRequest, msgNoID
	case errors.Is(err, documentdb.ErrConflict):
		return http.StatusConflict, msgConflict
	case errors.Is(err, documentdb.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, documentdb.ErrPartitionKeyMismatch):
		return http.StatusConflict, msgPKMismatch
	default:
		return http.StatusServiceUnavailable, msgUnavailable
	}
}

// parseQueryPartitionKey extracts the integer pk query parameter.
// Returns the parsed key or responds with a 400 error and returns 0, false.
func parseQueryPartitionKey(c *gin.Context) (int, bool) {
	raw := c.Query(queryParamPK)
	if raw == "" {
		c.String(http.StatusBadRequest, "%s is required", queryParamPK)
		return 0, false
	}
	pk, err := strconv.Atoi(raw)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid %s", queryParamPK)
		return 0, false
	}
	return pk, true
}
