package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadforgehq/outreach-backend/internal/services"
)

// transparent 1x1 GIF served for open tracking
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
}

type TrackingHandler struct {
	trackingService *services.TrackingService
}

func NewTrackingHandler(trackingService *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
	}
}

// TrackOpen godoc
// @Summary Open tracking pixel
// @Description Records an open event and serves a transparent 1x1 GIF. Always returns the pixel, even for invalid tokens.
// @Tags tracking
// @Produce image/gif
// @Param token path string true "Signed tracking token"
// @Success 200 {file} binary
// @Router /t/o/{token} [get]
func (h *TrackingHandler) TrackOpen(c *gin.Context) {
	// Invalid tokens still get the pixel; broken images in an email
	// client would give the instrumentation away
	_ = h.trackingService.HandleOpen(c.Param("token"))

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Data(http.StatusOK, "image/gif", trackingPixel)
}

// TrackClick godoc
// @Summary Click tracking redirect
// @Description Records a click event and redirects to the original link target
// @Tags tracking
// @Param token path string true "Signed tracking token"
// @Success 302
// @Failure 400 {object} map[string]interface{}
// @Router /t/c/{token} [get]
func (h *TrackingHandler) TrackClick(c *gin.Context) {
	target, err := h.trackingService.HandleClick(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tracking link"})
		return
	}

	c.Redirect(http.StatusFound, target)
}
