package echomw

import (
	"github.com/labstack/echo/v4"
	vmodel "github.com/reoring/vmodel"
	"github.com/reoring/vmodel/middleware"
)

// Validate decodes request JSON via schema s and stores the model in the
// request context, or answers with the issues payload (422) or a 400 for
// unreadable bodies. Rejections are logged through middleware.WithLogger.
func Validate(s vmodel.Schema, opts ...middleware.Option) echo.MiddlewareFunc {
	reject := middleware.Rejecter(opts...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m, err := middleware.Decode(c.Request(), s, opts...)
			if err != nil {
				reject(c.Response(), c.Request(), err)
				return nil
			}
			c.SetRequest(c.Request().WithContext(middleware.ContextWithModel(c.Request().Context(), m)))
			return next(c)
		}
	}
}

// Model fetches the validated model from echo.Context.
func Model(c echo.Context) (*vmodel.Model, bool) {
	return middleware.ModelFromContext(c.Request().Context())
}
