package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/admission"
	"github.com/chatwave/chatwave-server/internal/auth"
	"github.com/chatwave/chatwave-server/internal/calls"
	"github.com/chatwave/chatwave-server/internal/chat"
	"github.com/chatwave/chatwave-server/internal/config"
	"github.com/chatwave/chatwave-server/internal/fanout"
	"github.com/chatwave/chatwave-server/internal/presence"
	"github.com/chatwave/chatwave-server/internal/store"
)

// Deps bundles the services the HTTP layer exposes.
type Deps struct {
	Store      store.Store
	Auth       *auth.Service
	Chat       *chat.Service
	Calls      *calls.Service
	Registry   *presence.Registry
	Dispatcher *fanout.Dispatcher
	Admission  *admission.Controller
}

// NewServer builds the HTTP server with all routes wired.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(deps.Auth, deps.Store, logger)
	messageHandlers := NewMessageHandlers(deps.Chat, logger)
	groupHandlers := NewGroupHandlers(deps.Chat, logger)
	wsHandler := NewWSHandler(deps.Registry, deps.Dispatcher, deps.Auth, deps.Admission, logger)

	router.GET("/health", healthHandler)
	router.GET("/ws", wsHandler.Handle)

	authLimited := router.Group("/api", AdmissionMiddleware(deps.Admission, admission.ClassAuth, logger))
	{
		authLimited.POST("/register", apiHandlers.Register)
		authLimited.POST("/login", apiHandlers.Login)
	}

	authed := router.Group("/api", AuthMiddleware(deps.Auth, logger))

	reads := authed.Group("", AdmissionMiddleware(deps.Admission, admission.ClassAPI, logger))
	{
		reads.GET("/users/me", apiHandlers.Me)
		reads.GET("/users/search", apiHandlers.SearchUsers)
		reads.GET("/conversations", messageHandlers.Conversations)
		reads.GET("/conversations/:key/messages", messageHandlers.History)
		reads.GET("/groups/:id", groupHandlers.Get)
	}

	mutations := authed.Group("", AdmissionMiddleware(deps.Admission, admission.ClassMessage, logger))
	{
		mutations.POST("/messages", messageHandlers.Send)
		mutations.PUT("/messages/:id", messageHandlers.Edit)
		mutations.DELETE("/messages/:id", messageHandlers.Delete)
		mutations.POST("/messages/:id/pin", messageHandlers.Pin)
		mutations.DELETE("/messages/:id/pin", messageHandlers.Unpin)
		mutations.POST("/messages/:id/reactions", messageHandlers.React)
		mutations.DELETE("/messages/:id/reactions", messageHandlers.RemoveReaction)
		mutations.POST("/messages/:id/seen", messageHandlers.MarkSeen)
		mutations.POST("/messages/:id/listened", messageHandlers.MarkListened)
		mutations.POST("/messages/:id/saved", messageHandlers.ToggleSaved)

		mutations.POST("/groups", groupHandlers.Create)
		mutations.PUT("/groups/:id", groupHandlers.Update)
		mutations.POST("/groups/:id/members", groupHandlers.AddMember)
		mutations.DELETE("/groups/:id/members/:userId", groupHandlers.RemoveMember)
		mutations.POST("/groups/:id/leave", groupHandlers.Leave)
	}

	sensitive := authed.Group("", AdmissionMiddleware(deps.Admission, admission.ClassSensitive, logger))
	{
		sensitive.PUT("/users/me", apiHandlers.UpdateProfile)
		sensitive.DELETE("/groups/:id", groupHandlers.Delete)
	}

	if deps.Calls != nil && deps.Calls.Enabled() {
		callHandlers := NewCallHandlers(deps.Calls, logger)
		callRoutes := authed.Group("/calls", AdmissionMiddleware(deps.Admission, admission.ClassMessage, logger))
		{
			callRoutes.POST("", callHandlers.Start)
			callRoutes.POST("/:id/accept", callHandlers.Accept)
			callRoutes.POST("/:id/reject", callHandlers.Reject)
			callRoutes.POST("/:id/end", callHandlers.End)
		}
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	_, _ = fmt.Fprint(c.Writer, "ok")
}
