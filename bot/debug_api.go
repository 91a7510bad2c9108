package bot

import (
	"context"
	"errors"
	"net/http"
	"time"

	"absbot/models"
	"absbot/registry"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// DebugResponse represents the response from a debug endpoint
type DebugResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// GuildInfo represents basic guild information
type GuildInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	NotifyChannelID string `json:"notify_channel_id,omitempty"`
}

// BindingInfo is the debug view of one registry binding
type BindingInfo struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// GuildSource lists the guilds the bot is currently in
type GuildSource func() []GuildInfo

// DebugAPI is a read-only HTTP view of the bot's state
type DebugAPI struct {
	router   *gin.Engine
	server   *http.Server
	registry registry.Registry
	guilds   GuildSource
}

// NewDebugAPI builds the router; nothing listens until Start
func NewDebugAPI(addr string, reg registry.Registry, guilds GuildSource) *DebugAPI {
	router := gin.New()
	router.Use(gin.Recovery())

	d := &DebugAPI{
		router:   router,
		registry: reg,
		guilds:   guilds,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
	d.setupRoutes()
	return d
}

func (d *DebugAPI) setupRoutes() {
	d.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	debug := d.router.Group("/debug")
	{
		debug.GET("/guilds", d.handleGuilds)
		debug.GET("/bindings", d.handleBindings)
		debug.GET("/guilds/:guild_id/notify-channel", d.handleNotifyChannel)
	}
}

// Start serves in the background
func (d *DebugAPI) Start() {
	go func() {
		log.Infof("Debug API listening on %s", d.server.Addr)
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Debug API server error: %v", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done
func (d *DebugAPI) Shutdown(ctx context.Context) error {
	return d.server.Shutdown(ctx)
}

func (d *DebugAPI) handleGuilds(c *gin.Context) {
	var guilds []GuildInfo
	if d.guilds != nil {
		guilds = d.guilds()
	}

	for i := range guilds {
		guild, err := models.ParseGuildID(guilds[i].ID)
		if err != nil {
			continue
		}
		channel, err := d.registry.Get(c.Request.Context(), guild)
		if err == nil {
			guilds[i].NotifyChannelID = channel.String()
		}
	}

	c.JSON(http.StatusOK, DebugResponse{Success: true, Data: guilds})
}

func (d *DebugAPI) handleBindings(c *gin.Context) {
	bindings, err := registry.List(c.Request.Context(), d.registry)
	if errors.Is(err, registry.ErrListingUnsupported) {
		respondWithError(c, http.StatusNotImplemented, "registry cannot list bindings")
		return
	}
	if err != nil {
		log.WithError(err).Error("Debug API failed to list bindings")
		respondWithError(c, http.StatusInternalServerError, "failed to list bindings")
		return
	}

	out := make([]BindingInfo, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, BindingInfo{
			GuildID:   b.GuildID.String(),
			ChannelID: b.ChannelID.String(),
			UpdatedAt: b.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, DebugResponse{Success: true, Data: out})
}

func (d *DebugAPI) handleNotifyChannel(c *gin.Context) {
	guild, err := models.ParseGuildID(c.Param("guild_id"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "invalid guild id")
		return
	}

	channel, err := d.registry.Get(c.Request.Context(), guild)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		respondWithError(c, http.StatusNotFound, "no notification channel bound")
		return
	case err != nil:
		log.WithError(err).WithField("guild_id", guild.String()).Error("Debug API lookup failed")
		respondWithError(c, http.StatusInternalServerError, "lookup failed")
		return
	}

	c.JSON(http.StatusOK, DebugResponse{
		Success: true,
		Data: BindingInfo{
			GuildID:   guild.String(),
			ChannelID: channel.String(),
		},
	})
}

func respondWithError(c *gin.Context, status int, message string) {
	c.JSON(status, DebugResponse{Success: false, Error: message})
}

// Guilds lists the guilds in the session state
func (b *Bot) Guilds() []GuildInfo {
	b.session.State.RLock()
	defer b.session.State.RUnlock()

	guilds := make([]GuildInfo, 0, len(b.session.State.Guilds))
	for _, g := range b.session.State.Guilds {
		guilds = append(guilds, GuildInfo{ID: g.ID, Name: g.Name})
	}
	return guilds
}
