package approvals

import (
	"net/http"

	commonhandler "legacy-keeper-go/internal/transport/httpserver/handler/common"
	"legacy-keeper-go/pkg/logger"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return commonhandler.DecodeJSON(r, dst)
}

func writeServiceError(w http.ResponseWriter, log logger.Logger, op string, err error, kv ...any) {
	commonhandler.WriteServiceError(w, log, op, err, kv...)
}
