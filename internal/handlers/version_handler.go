package handlers

import "net/http"

// ProtocolVersion is the wire protocol version reported to the plugin.
const ProtocolVersion = "1.0.0"

// Build information injected at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

type VersionResponse struct {
	Version   string `json:"version"`
	Protocol  string `json:"protocol"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
}

func VersionHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, VersionResponse{
		Version:   Version,
		Protocol:  ProtocolVersion,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	})
}
