package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
)

// respondError writes the failure envelope for err and records the message
// for the request log.
func respondError(c *gin.Context, err error) {
	kind := errordata.KindOf(err)
	body := gin.H{"success": false, "message": errordata.PublicMessage(err)}
	if detail := errordata.PublicDetail(err); detail != "" {
		body["error"] = detail
	}
	if ed := errordata.GetErrorData(c.Request.Context()); ed != nil {
		ed.SetMessage(err.Error())
	}
	c.JSON(errordata.HTTPStatus(kind), body)
}

func respondOK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func invalidBody(c *gin.Context) {
	respondError(c, errordata.Validation("Invalid request body"))
}

// uuidParam parses a path id. A malformed id is reported as notFound since no
// such row can exist.
func uuidParam(c *gin.Context, name string, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, notFound)
		return uuid.Nil, false
	}
	return id, true
}

// NoRoute answers unknown paths with the standard envelope.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found", "path": c.Request.URL.Path})
}
