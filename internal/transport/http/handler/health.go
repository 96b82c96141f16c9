package handler

import "net/http"

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "ok"})
}
