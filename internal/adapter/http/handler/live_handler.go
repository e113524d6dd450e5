package handler

import (
	"context"

	"installment-platform/internal/adapter/http/middleware"
	"installment-platform/internal/adapter/ws"
	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"
	"installment-platform/pkg/response"

	"github.com/gin-gonic/gin"
)

// LiveHandler serves the websocket endpoints backed by the connection
// registry.
type LiveHandler struct {
	hub      *ws.Hub
	userRepo ports.UserRepository
	otpSvc   ports.OTPService
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(hub *ws.Hub, userRepo ports.UserRepository, otpSvc ports.OTPService) *LiveHandler {
	return &LiveHandler{hub: hub, userRepo: userRepo, otpSvc: otpSvc}
}

// Stream handles GET /ws/:channel: stores subscribe with their id and
// receive transaction outcomes as they are published.
func (h *LiveHandler) Stream(c *gin.Context) {
	h.hub.ServeWS(c, c.Param("channel"))
}

// OTPStream handles GET /api/v1/users/me/otp (JWT protected). It keeps
// the user's rolling OTP code flowing over the socket for as long as the
// connection stays open.
func (h *LiveHandler) OTPStream(c *gin.Context) {
	mobile := c.GetString(middleware.CtxMobileNumber)

	user, err := h.userRepo.GetByMobileNumber(c.Request.Context(), mobile)
	if err != nil {
		response.Error(c, apperror.Internal(err))
		return
	}
	if user == nil {
		response.Error(c, apperror.ErrUserNotFound())
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go h.otpSvc.Run(ctx, user, h.hub)

	h.hub.ServeWS(c, user.ID.String())
}
