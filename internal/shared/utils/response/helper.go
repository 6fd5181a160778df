// Package response defines the JSON envelope every parkgate handler replies
// with. Gate devices and the back-office client parse the same shape for
// every endpoint: scan verdicts, ticket lookups, auth, and webhooks all wrap
// their payload in a StandardApiResponse so callers branch on status and
// message without per-endpoint decoding.
package response

import "github.com/gin-gonic/gin"

// RespondJSON writes the envelope with the given HTTP code. Pass data on
// success and errors on failure; whichever is nil is omitted from the body.
func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}
