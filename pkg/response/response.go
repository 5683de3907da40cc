package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Base is the envelope every API response carries. Handlers embed it in
// their typed response structs so the JSON stays flat.
type Base struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK returns a successful envelope for embedding.
func OK() Base {
	return Base{Success: true}
}

// Err returns a failed envelope with a message.
func Err(msg string) Base {
	return Base{Success: false, Error: msg}
}

// Fail writes a failure response with the given HTTP status and aborts
// the handler chain.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Err(msg))
}

// FailInternal writes a 500 with a generic message. The cause must be
// logged by the caller; it is never sent to the client.
func FailInternal(c *gin.Context) {
	Fail(c, http.StatusInternalServerError, "internal server error")
}
