package ginmw

import (
	"github.com/gin-gonic/gin"
	vmodel "github.com/reoring/vmodel"
	"github.com/reoring/vmodel/middleware"
)

// Validate decodes the request JSON and validates it against s. On success
// the model is stored in the request context; on failure the request is
// aborted with the issues payload (422) or a 400 for unreadable bodies.
func Validate(s vmodel.Schema, opts ...middleware.Option) gin.HandlerFunc {
	reject := middleware.Rejecter(opts...)
	return func(c *gin.Context) {
		m, err := middleware.Decode(c.Request, s, opts...)
		if err != nil {
			reject(c.Writer, c.Request, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithModel(c.Request.Context(), m))
		c.Next()
	}
}

// Model fetches the validated model from gin.Context.
func Model(c *gin.Context) (*vmodel.Model, bool) {
	return middleware.ModelFromContext(c.Request.Context())
}
