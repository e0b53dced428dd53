package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

const contentTypeJSON = "application/json; charset=utf-8"

// render encodes body with the given status. Catalog names may hold '<' or
// '&', so HTML escaping is turned off.
func render(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

func renderError(w http.ResponseWriter, status int, message string, fields map[string]interface{}) {
	render(w, status, model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message, Context: fields},
	})
}

// filter returns the trimmed value of query parameter key.
func filter(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
