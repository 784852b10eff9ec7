package middleware

import (
	"net/http"
	"strings"

	domainStation "iot-fleet-hub/internal/domain/station"
	"iot-fleet-hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	// DeviceKey is the gin context key holding the authenticated station.
	DeviceKey = "device_station"
)

// DeviceAuthMiddleware authenticates legacy devices by API token, supplied
// either as a bearer token or as a "token" form field. Unknown tokens get 401;
// inactive stations get 403. The authenticated station is attached to the
// context for handlers to enforce station-code matching.
func DeviceAuthMiddleware(stations domainStation.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.PostForm("token")
		}
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Device token required")
			c.Abort()
			return
		}

		station, err := stations.GetByToken(c.Request.Context(), token)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid device token")
			c.Abort()
			return
		}

		if !station.Active {
			utils.ErrorResponse(c, http.StatusForbidden, "Device is inactive")
			c.Abort()
			return
		}

		c.Set(DeviceKey, station)
		c.Next()
	}
}

// GetDevice retrieves the authenticated station from the Gin context.
func GetDevice(c *gin.Context) *domainStation.Station {
	if v, exists := c.Get(DeviceKey); exists {
		if station, ok := v.(*domainStation.Station); ok {
			return station
		}
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
