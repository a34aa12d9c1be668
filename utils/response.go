package utils

import "github.com/gin-gonic/gin"

// JSONError writes {"error": {"code": "error.<name>", "message": ...}}.
func JSONError(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, gin.H{
		"error": gin.H{
			"code":    errCode,
			"message": message,
		},
	})
}

// AbortJSONError is JSONError for middleware.
func AbortJSONError(c *gin.Context, code int, errCode, message string) {
	JSONError(c, code, errCode, message)
	c.Abort()
}
