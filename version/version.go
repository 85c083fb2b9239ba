package version

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"spendora-backend/config"
)

// Version information, overridden at build time with -ldflags "-X".
var (
	Version    = "0.3.0"
	GoVersion  = runtime.Version()
	ServerCode = "SPENDORA_SERVER_2024_0.3.0"
)

// GetInfoResponse holds all version information
type GetInfoResponse struct {
	Version      string `json:"version"`
	GoVersion    string `json:"go_version"`
	ServerCode   string `json:"server_code"`
	ServerEnv    string `json:"server_env,omitempty"`
	DatabaseName string `json:"database_name,omitempty"`
}

// GetInfo returns version information. Environment details are only filled in
// outside production.
func GetInfo(cfg *config.Config) GetInfoResponse {
	info := GetInfoResponse{
		Version:    Version,
		GoVersion:  GoVersion,
		ServerCode: ServerCode,
	}
	if cfg != nil && !cfg.IsProduction() {
		info.ServerEnv = cfg.AppEnv
		info.DatabaseName = cfg.GetDatabaseName()
	}
	return info
}

func HandleGetInfo(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, GetInfo(cfg))
	}
}
