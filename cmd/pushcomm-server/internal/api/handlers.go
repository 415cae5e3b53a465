// Package api provides the HTTP surface of pushcomm-server.
//
// Mutating endpoints require a signed request (see SigningMessage); the
// verified signer becomes the acting identity of the directory request.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/model"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

// Handler holds dependencies for API handlers.
type Handler struct {
	directory *pushcomm.Directory
	logger    pushcomm.Logger
}

// NewHandler creates a new API handler.
func NewHandler(directory *pushcomm.Directory, logger pushcomm.Logger) *Handler {
	if logger == nil {
		logger = &pushcomm.NoopLogger{}
	}
	return &Handler{directory: directory, logger: logger}
}

// AddressRequest carries the new value of a Registry address.
type AddressRequest struct {
	Address model.Identity `json:"address"`
}

// TransferAdminRequest names the next admin.
type TransferAdminRequest struct {
	NewAdmin model.Identity `json:"newAdmin"`
}

// ChannelRequest names a channel.
type ChannelRequest struct {
	Channel model.Identity `json:"channel"`
}

// DelegateRequest names a delegate of the signing channel.
type DelegateRequest struct {
	Delegate model.Identity `json:"delegate"`
}

// SetupRoutes configures all REST API routes.
func SetupRoutes(router *gin.Engine, h *Handler, verifier *SignatureVerifier) {
	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/registry", h.GetRegistry)
		v1.GET("/subscribers/:subscriber", h.GetSubscriber)
		v1.GET("/subscriptions/:subscriber/:channel", h.GetSubscription)
		v1.GET("/delegates/:channel/:delegate", h.GetDelegate)
		v1.GET("/settings/:subscriber/:channel", h.GetNotificationSettings)
		v1.GET("/events", h.ListEvents)

		signed := v1.Group("", verifier.Middleware())
		signed.POST("/initialize", h.Initialize)
		signed.POST("/admin/token-address", h.SetPushTokenAddress)
		signed.POST("/admin/governance-address", h.SetGovernanceAddress)
		signed.POST("/admin/core-address", h.SetCoreAddress)
		signed.POST("/admin/pause", h.Pause)
		signed.POST("/admin/unpause", h.Unpause)
		signed.POST("/admin/transfer", h.TransferAdmin)
		signed.POST("/subscribe", h.Subscribe)
		signed.POST("/unsubscribe", h.Unsubscribe)
		signed.POST("/delegates/add", h.AddDelegate)
		signed.POST("/delegates/remove", h.RemoveDelegate)
		signed.POST("/notifications", h.SendNotification)
		signed.POST("/settings", h.SetNotificationSettings)
		signed.POST("/channel-alias", h.VerifyChannelAlias)
	}
}

// NewRouter builds a gin engine with recovery and the API routes.
func NewRouter(h *Handler, verifier *SignatureVerifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, h, verifier)
	return router
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Initialize handles POST /api/v1/initialize
func (h *Handler) Initialize(c *gin.Context) {
	var req pushcomm.InitializeRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Signer = signerFrom(c)
	h.respondReceipt(c, "Initialize", http.StatusCreated)(h.directory.Initialize(c.Request.Context(), req))
}

// SetPushTokenAddress handles POST /api/v1/admin/token-address
func (h *Handler) SetPushTokenAddress(c *gin.Context) {
	h.setAddress(c, "SetPushTokenAddress", h.directory.SetPushTokenAddress)
}

// SetGovernanceAddress handles POST /api/v1/admin/governance-address
func (h *Handler) SetGovernanceAddress(c *gin.Context) {
	h.setAddress(c, "SetGovernanceAddress", h.directory.SetGovernanceAddress)
}

// SetCoreAddress handles POST /api/v1/admin/core-address
func (h *Handler) SetCoreAddress(c *gin.Context) {
	h.setAddress(c, "SetCoreAddress", h.directory.SetCoreAddress)
}

type addressSetter func(ctx context.Context, signer, address model.Identity) (*pushcomm.Receipt, error)

func (h *Handler) setAddress(c *gin.Context, op string, set addressSetter) {
	var req AddressRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondReceipt(c, op, http.StatusOK)(set(c.Request.Context(), signerFrom(c), req.Address))
}

// Pause handles POST /api/v1/admin/pause
func (h *Handler) Pause(c *gin.Context) {
	h.respondReceipt(c, "PauseContract", http.StatusOK)(h.directory.PauseContract(c.Request.Context(), signerFrom(c)))
}

// Unpause handles POST /api/v1/admin/unpause
func (h *Handler) Unpause(c *gin.Context) {
	h.respondReceipt(c, "UnpauseContract", http.StatusOK)(h.directory.UnpauseContract(c.Request.Context(), signerFrom(c)))
}

// TransferAdmin handles POST /api/v1/admin/transfer
func (h *Handler) TransferAdmin(c *gin.Context) {
	var req TransferAdminRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondReceipt(c, "TransferAdminOwnership", http.StatusOK)(
		h.directory.TransferAdminOwnership(c.Request.Context(), signerFrom(c), req.NewAdmin))
}

// Subscribe handles POST /api/v1/subscribe
func (h *Handler) Subscribe(c *gin.Context) {
	var req ChannelRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondReceipt(c, "Subscribe", http.StatusCreated)(
		h.directory.Subscribe(c.Request.Context(), signerFrom(c), req.Channel))
}

// Unsubscribe handles POST /api/v1/unsubscribe
func (h *Handler) Unsubscribe(c *gin.Context) {
	var req ChannelRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondReceipt(c, "Unsubscribe", http.StatusOK)(
		h.directory.Unsubscribe(c.Request.Context(), signerFrom(c), req.Channel))
}

// AddDelegate handles POST /api/v1/delegates/add; the signer is the channel.
func (h *Handler) AddDelegate(c *gin.Context) {
	var req DelegateRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondReceipt(c, "AddDelegate", http.StatusCreated)(
		h.directory.AddDelegate(c.Request.Context(), signerFrom(c), req.Delegate))
}

// RemoveDelegate handles POST /api/v1/delegates/remove
func (h *Handler) RemoveDelegate(c *gin.Context) {
	var req DelegateRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondReceipt(c, "RemoveDelegate", http.StatusOK)(
		h.directory.RemoveDelegate(c.Request.Context(), signerFrom(c), req.Delegate))
}

// SendNotification handles POST /api/v1/notifications
func (h *Handler) SendNotification(c *gin.Context) {
	var req pushcomm.SendNotificationRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Signer = signerFrom(c)
	h.respondReceipt(c, "SendNotification", http.StatusCreated)(h.directory.SendNotification(c.Request.Context(), req))
}

// SetNotificationSettings handles POST /api/v1/settings
func (h *Handler) SetNotificationSettings(c *gin.Context) {
	var req pushcomm.NotificationSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Subscriber = signerFrom(c)
	h.respondReceipt(c, "SetUserNotificationSettings", http.StatusOK)(
		h.directory.SetUserNotificationSettings(c.Request.Context(), req))
}

// VerifyChannelAlias handles POST /api/v1/channel-alias
func (h *Handler) VerifyChannelAlias(c *gin.Context) {
	var req pushcomm.ChannelAliasRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Signer = signerFrom(c)
	h.respondReceipt(c, "VerifyChannelAlias", http.StatusCreated)(h.directory.VerifyChannelAlias(c.Request.Context(), req))
}

// GetRegistry handles GET /api/v1/registry
func (h *Handler) GetRegistry(c *gin.Context) {
	reg, err := h.directory.Registry(c.Request.Context())
	h.respondRead(c, "Registry", reg, err)
}

// GetSubscriber handles GET /api/v1/subscribers/:subscriber
func (h *Handler) GetSubscriber(c *gin.Context) {
	subscriber, ok := pathIdentity(c, "subscriber")
	if !ok {
		return
	}
	ledger, err := h.directory.Subscriber(c.Request.Context(), subscriber)
	h.respondRead(c, "Subscriber", ledger, err)
}

// GetSubscription handles GET /api/v1/subscriptions/:subscriber/:channel
func (h *Handler) GetSubscription(c *gin.Context) {
	subscriber, ok := pathIdentity(c, "subscriber")
	if !ok {
		return
	}
	channel, ok := pathIdentity(c, "channel")
	if !ok {
		return
	}
	sub, err := h.directory.Subscription(c.Request.Context(), subscriber, channel)
	h.respondRead(c, "Subscription", sub, err)
}

// GetDelegate handles GET /api/v1/delegates/:channel/:delegate
func (h *Handler) GetDelegate(c *gin.Context) {
	channel, ok := pathIdentity(c, "channel")
	if !ok {
		return
	}
	delegate, ok := pathIdentity(c, "delegate")
	if !ok {
		return
	}
	rec, err := h.directory.Delegate(c.Request.Context(), channel, delegate)
	h.respondRead(c, "Delegate", rec, err)
}

// GetNotificationSettings handles GET /api/v1/settings/:subscriber/:channel
func (h *Handler) GetNotificationSettings(c *gin.Context) {
	subscriber, ok := pathIdentity(c, "subscriber")
	if !ok {
		return
	}
	channel, ok := pathIdentity(c, "channel")
	if !ok {
		return
	}
	settings, err := h.directory.NotificationSettings(c.Request.Context(), subscriber, channel)
	h.respondRead(c, "NotificationSettings", settings, err)
}

// ListEvents handles GET /api/v1/events?after=&limit=
func (h *Handler) ListEvents(c *gin.Context) {
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "after must be a non-negative integer")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultEventsLimit)))
	if err != nil || limit < 1 {
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "limit must be a positive integer")
		return
	}
	if limit > maxEventsLimit {
		limit = maxEventsLimit
	}

	events, err := h.directory.Events(c.Request.Context(), after, limit)
	h.respondRead(c, "Events", events, err)
}

// respondReceipt returns a sink for a directory call's (receipt, error) pair.
func (h *Handler) respondReceipt(c *gin.Context, op string, status int) func(*pushcomm.Receipt, error) {
	return func(receipt *pushcomm.Receipt, err error) {
		if err != nil {
			h.respondDirectoryError(c, op, err)
			return
		}
		respondSuccess(c, status, receipt, "")
	}
}

func (h *Handler) respondRead(c *gin.Context, op string, data interface{}, err error) {
	if err != nil {
		h.respondDirectoryError(c, op, err)
		return
	}
	respondSuccess(c, http.StatusOK, data, "")
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "Invalid JSON", err.Error())
		return false
	}
	return true
}

func pathIdentity(c *gin.Context, name string) (model.Identity, bool) {
	id, err := model.ParseIdentity(c.Param(name))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "Invalid "+name, err.Error())
		return model.ZeroIdentity, false
	}
	return id, true
}
