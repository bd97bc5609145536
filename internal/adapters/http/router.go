package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Nursery/internal/adapters/signal"
	"github.com/dkeye/Nursery/internal/app/orch"
	"github.com/dkeye/Nursery/internal/config"
	"github.com/dkeye/Nursery/internal/domain"
)

const maxRoomNameLen = 64

// ClientTokenMiddleware gives every client a stable token kept in its
// signed session cookie. The token identifies signaling connections.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get("ct").(string)
		if token == "" {
			token = uuid.NewString()
			s.Set("ct", token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type spawnRequest struct {
	RoomName string `json:"roomName"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ctrl *signal.SignalWSController, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("NurserySessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": len(o.List())})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	spawn := spawnHandler(o)
	r.POST("/spawnAgent", spawn)

	api := r.Group("/api")
	api.POST("/agents", spawn)
	api.GET("/agents", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.List()})
	})
	api.DELETE("/agents/:room", func(c *gin.Context) {
		room := domain.RoomName(c.Param("room"))
		if !o.End(room, "stopped by api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "room is not monitored"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "stopped", "room": room})
	})
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

func spawnHandler(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req spawnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		name := strings.TrimSpace(req.RoomName)
		if name == "" || len(name) > maxRoomNameLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomName is required"})
			return
		}
		room := domain.RoomName(name)
		if _, created := o.Spawn(room); !created {
			c.JSON(http.StatusOK, gin.H{"status": "already_running", "room": room})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "started", "room": room})
	}
}
