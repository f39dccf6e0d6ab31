package i18n

import "github.com/gin-gonic/gin"

// Middleware stores a localizer chosen from Accept-Language in the request
// context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := NewLocalizer(c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(WithLocalizer(c.Request.Context(), loc))
		c.Next()
	}
}
