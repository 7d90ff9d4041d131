package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dkeye/WatchParty/internal/adapters/auth"
	"github.com/dkeye/WatchParty/internal/adapters/signal"
	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/config"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	identityKey     = "identity"
	sessionTokenKey = "token"
)

// Hub is what the HTTP surface needs from the orchestrator.
type Hub interface {
	signal.Coordinator
	Snapshot(ctx context.Context, id domain.RoomID) (core.RoomStatePayload, bool, error)
	Rooms(ctx context.Context) ([]app.RoomInfo, error)
}

func credentialFrom(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// IdentityMiddleware resolves the caller's identity. A freshly presented
// valid token is remembered in the cookie session for later connections.
func IdentityMiddleware(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		presented := credentialFrom(c)

		credential := presented
		if credential == "" {
			if remembered, ok := session.Get(sessionTokenKey).(string); ok {
				credential = remembered
			}
		}

		identity, err := auth.Resolve(v, credential)
		switch {
		case err != nil:
			log.Debug().Err(err).Str("module", "adapters.http").Msg("credential rejected, continuing as guest")
			if presented == "" {
				session.Delete(sessionTokenKey)
				_ = session.Save()
			}
		case presented != "":
			session.Set(sessionTokenKey, presented)
			_ = session.Save()
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityOf(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(domain.Identity); ok {
			return identity
		}
	}
	return domain.Guest()
}

func SetupRouter(ctx context.Context, cfg *config.Config, hub Hub, verifier auth.Verifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("WatchPartySession", store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctrl := signal.NewSignalWSController(hub, signal.Settings{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
	})
	r.GET("/ws", IdentityMiddleware(verifier), func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c, identityOf(c))
	})

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		rooms, err := hub.Rooms(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rooms)
	})
	api.GET("/rooms/:id/state", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}
		state, ok, err := hub.Snapshot(c.Request.Context(), domain.RoomID(id))
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case err != nil:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case !ok:
			c.JSON(http.StatusNotFound, gin.H{"error": "room not active"})
		default:
			c.JSON(http.StatusOK, state)
		}
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
