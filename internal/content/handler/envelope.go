package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/contentstore/internal/content/service"
	"github.com/gogotex/contentstore/pkg/logger"
)

const (
	HeaderContentID     = "Content-Id"
	HeaderReplicaSynced = "X-Replica-Synced"

	MsgFetched     = "Content fetched successfully."
	MsgUpdated     = "Content updated successfully."
	MsgDeleted     = "Content deleted successfully."
	MsgSyncPending = "Content updated; replica sync pending."
	MsgNotFound    = "Not found"
	MsgInvalid     = "Invalid data"
	MsgConflict    = "Content changed concurrently, retry."
	MsgInternal    = "Internal error"
)

// Envelope is the body of every content response.
type Envelope struct {
	Message string `json:"message"`
	Content any    `json:"content"`
}

// respond writes the envelope for a finished operation. success is the
// message used when the operation went through.
func respond(c *gin.Context, res *service.Result, err error, success string) {
	if res == nil {
		res = &service.Result{}
	}
	// set directly: gin's c.Header drops empty values
	c.Writer.Header().Set(HeaderContentID, res.DocumentID)

	if err != nil {
		status, msg := http.StatusInternalServerError, MsgInternal
		switch {
		case errors.Is(err, service.ErrNotFound):
			status, msg = http.StatusNotFound, MsgNotFound
		case errors.Is(err, service.ErrInvalidInput):
			status, msg = http.StatusBadRequest, MsgInvalid
		case errors.Is(err, service.ErrConflict):
			status, msg = http.StatusConflict, MsgConflict
		default:
			logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		}
		c.JSON(status, Envelope{Message: msg})
		return
	}

	if res.Committed {
		if !res.Synced {
			c.Header(HeaderReplicaSynced, "false")
			c.JSON(http.StatusAccepted, Envelope{Message: MsgSyncPending, Content: res.Content})
			return
		}
		c.Header(HeaderReplicaSynced, "true")
	}
	c.JSON(http.StatusOK, Envelope{Message: success, Content: res.Content})
}

// invalid rejects a request before it reaches the service.
func invalid(c *gin.Context) {
	c.Writer.Header().Set(HeaderContentID, "")
	c.JSON(http.StatusBadRequest, Envelope{Message: MsgInvalid})
}
