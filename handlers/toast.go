package handlers

import (
	"encoding/json"
	"log"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
)

// isHTMX reports whether the request came from an hx-* attribute.
func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

// SetToast sets the HX-Trigger response header to show a toast notification
// on the client via HTMX. An existing HX-Trigger JSON object is kept and the
// showToast key is merged into it.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	trigger := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &trigger); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			trigger = map[string]any{}
		}
	}
	trigger["showToast"] = map[string]string{
		"message": message,
		"type":    toastType,
	}

	data, err := json.Marshal(trigger)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))
}

// ErrorToast reports a user-facing error. HTMX requests get an error toast
// with HX-Reswap: none so the body is not swapped into the page; API clients
// get {"message": ...} with the same status.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	if !isHTMX(e) {
		return e.JSON(statusCode, map[string]string{"message": message})
	}
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}

// render writes the partial for HTMX requests and data as JSON otherwise.
func render(e *core.RequestEvent, status int, data any, component templ.Component) error {
	if !isHTMX(e) {
		return e.JSON(status, data)
	}
	e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
	e.Response.WriteHeader(status)
	return component.Render(e.Request.Context(), e.Response)
}
