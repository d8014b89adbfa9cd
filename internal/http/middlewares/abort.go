package middlewares

import "github.com/gin-gonic/gin"

// abort writes the flat error envelope shared with the handlers package.
func abort(c *gin.Context, status int, code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	id, _ := reqID.(string)

	c.AbortWithStatusJSON(status, gin.H{
		"error":     message,
		"code":      code,
		"requestId": id,
	})
}
