package handlers

import "net/http"

// Health answers liveness probes. The pipeline has no hard external
// dependencies, so liveness is process-up.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
