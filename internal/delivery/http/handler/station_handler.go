package handler

import (
	"errors"
	"net/http"
	"strconv"

	domainStation "iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/internal/usecase/station"
	"iot-fleet-hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type StationHandler struct {
	service *station.Service
}

func NewStationHandler(service *station.Service) *StationHandler {
	return &StationHandler{service: service}
}

func (h *StationHandler) RegisterRoutes(router *gin.RouterGroup) {
	stations := router.Group("/stations")
	{
		stations.GET("", h.ListStations)
		stations.GET("/:code", h.GetStation)
		stations.GET("/:code/readings", h.ListReadings)
		stations.GET("/:code/tasks", h.ListTaskLogs)
	}
}

func (h *StationHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	stations := router.Group("/stations")
	{
		stations.POST("", h.CreateStation)
		stations.PUT("/:code/configuration", h.UpdateConfiguration)
		stations.POST("/:code/request-update", h.RequestUpdate)
		stations.DELETE("/:code", h.DeactivateStation)
		stations.DELETE("/:code/purge", h.PurgeStation)
	}
}

func (h *StationHandler) CreateStation(c *gin.Context) {
	var req station.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.CreateStation(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domainStation.ErrStationAlreadyExists) {
			utils.ErrorResponse(c, http.StatusConflict, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Station created successfully", resp)
}

func (h *StationHandler) GetStation(c *gin.Context) {
	resp, err := h.service.GetStation(c.Request.Context(), c.Param("code"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Station retrieved successfully", resp)
}

func (h *StationHandler) ListStations(c *gin.Context) {
	var filter station.StationFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	resp, err := h.service.ListStations(c.Request.Context(), &filter)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Stations retrieved successfully", resp)
}

func (h *StationHandler) UpdateConfiguration(c *gin.Context) {
	var req station.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.UpdateConfiguration(c.Request.Context(), c.Param("code"), &req)
	if err != nil {
		if errors.Is(err, domainStation.ErrStationNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Configuration updated", resp)
}

func (h *StationHandler) RequestUpdate(c *gin.Context) {
	err := h.service.RequestUpdate(c.Request.Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, domainStation.ErrStationNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
		case errors.Is(err, domainStation.ErrStationInactive):
			utils.ErrorResponse(c, http.StatusConflict, err.Error())
		default:
			utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Update requested", nil)
}

func (h *StationHandler) DeactivateStation(c *gin.Context) {
	err := h.service.DeactivateStation(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, domainStation.ErrStationNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Station deactivated", nil)
}

func (h *StationHandler) PurgeStation(c *gin.Context) {
	err := h.service.PurgeStation(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, domainStation.ErrStationNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Station purged", nil)
}

func (h *StationHandler) ListReadings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	resp, err := h.service.ListReadings(c.Request.Context(), c.Param("code"), page, pageSize)
	if err != nil {
		if errors.Is(err, domainStation.ErrStationNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Readings retrieved successfully", resp)
}

func (h *StationHandler) ListTaskLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	resp, err := h.service.ListTaskLogs(c.Request.Context(), c.Param("code"), limit)
	if err != nil {
		if errors.Is(err, domainStation.ErrStationNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Task logs retrieved successfully", resp)
}
