package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler mounts a resource under Root in the public, private and
// admin API groups. Handlers leave a group untouched when they expose
// nothing there.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
