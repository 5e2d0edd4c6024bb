package user

import "github.com/gin-gonic/gin"

// UserModule implements the app.Module interface for the user domain.
type UserModule struct {
	handler *UserHandler
}

// NewModule creates a new UserModule with the given handler.
// Panics if h is nil.
func NewModule(h *UserHandler) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h}
}

// RegisterRoutes registers the user API routes. Static segments take
// precedence over :email, so "export" and "exists" are never read as emails.
func (m *UserModule) RegisterRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	users.GET("", m.handler.List)
	users.POST("", m.handler.Create)
	users.GET("/export", m.handler.Export)
	users.GET("/exists/:email", m.handler.Exists)
	users.GET("/:email", m.handler.Get)
	users.PATCH("/:email", m.handler.Update)
	users.DELETE("/:email", m.handler.Delete)
}
