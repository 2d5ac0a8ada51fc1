package handlers

import (
	"errors"
	"net/http"

	"microclimate_station/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK          = "ok"
	statusSetpointSet = "setpoint_set"

	errGetStatus = "failed to load station status"
)

// logAndJSONError centralizes error logging and the JSON error response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// setpointRequest is the payload for changing a channel target.
type setpointRequest struct {
	// Channel to retarget. Allowed: temperature, humidity, co2
	Channel string `json:"channel" binding:"required" example:"temperature"`
	// New target value
	Value *float64 `json:"value" binding:"required" example:"21.5"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Station status
// @Description  Setpoints, hysteresis bands, actuators and the last reading
// @Tags         station
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/station/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "station_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Actuator state
// @Tags         station
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/station/actuators [get]
// @Security     BearerAuth
func (h *Handler) getActuators(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "station_actuators_failed", err)
		return
	}
	c.JSON(http.StatusOK, st.Actuators)
}

// @Summary      Set channel target
// @Description  Channel must be one of temperature, humidity, co2
// @Tags         station
// @Accept       json
// @Produce      json
// @Param        body  body   setpointRequest  true  "Setpoint payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/station/setpoint [put]
// @Security     BearerAuth
func (h *Handler) setSetpoint(c *gin.Context) {
	var req setpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	err := h.services.Station.SetSetpoint(c.Request.Context(), req.Channel, *req.Value)
	if err != nil {
		if errors.Is(err, service.ErrUnknownChannel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to set setpoint", "setpoint_failed", err,
			"channel", req.Channel)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  statusSetpointSet,
		"channel": req.Channel,
		"value":   *req.Value,
	})
}
