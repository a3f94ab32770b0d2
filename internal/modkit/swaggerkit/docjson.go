package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"facegate/internal/core/version"
	"facegate/internal/platform/config"
)

// SpecMutator lets modules tweak the parsed spec before it is served
type SpecMutator func(map[string]any)

var (
	mu       sync.RWMutex
	mutators []SpecMutator
)

// docReader is a seam so tests can inject invalid JSON
var docReader = func() string { return consoleDoc }

// Register adds a spec mutator for the served JSON
// call this from module constructors so it is wired automatically
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	mutators = append(mutators, m)
	mu.Unlock()
}

// reset drops registered mutators, tests only
func reset() {
	mu.Lock()
	mutators = nil
	mu.Unlock()
}

// serveDocJSON serves the console spec and lets modules adjust details
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/api/v1")

		info, _ := spec["info"].(map[string]any)
		if info != nil {
			info["version"] = version.Info().Version
			cfg := config.New().Prefix("FACEGATE_CONSOLE_")
			if v := cfg.MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + v
				}
			}
		}

		ensureErrorResponseDefinition(spec)
		addDefaultResponse(spec, "500", errorExample(http.StatusInternalServerError, 1, "panic recovered"))
		addDefaultResponse(spec, "400", errorExample(http.StatusBadRequest, 6, "mode must be one of [register verify]"))

		mu.RLock()
		ms := append([]SpecMutator(nil), mutators...)
		mu.RUnlock()
		for _, m := range ms {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers makes sure the spec is OAS3 and has a servers array
// swagger http ui can't render 3.1, so downconvert if needed
func ensureServers(spec map[string]any, url string) {
	if _, hasSwagger := spec["swagger"]; hasSwagger {
		spec["openapi"] = "3.0.3"
		delete(spec, "swagger")
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{
			map[string]any{"url": url},
		}
	}
}

// ensureErrorResponseDefinition creates the error envelope model if missing
// kept minimal so it does not drift from the runtime wire
func ensureErrorResponseDefinition(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Standard error response",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

func errorExample(status, code int, msg string) map[string]any {
	return map[string]any{
		"description": http.StatusText(status),
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      http.StatusText(status),
					"code":        code,
					"error":       msg,
					"request_id":  "kiosk-01/abc-000001",
				},
			},
		},
	}
}

// addDefaultResponse walks every operation and injects resp under status if absent
func addDefaultResponse(spec map[string]any, status string, resp map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps, ok := op["responses"].(map[string]any)
			if !ok {
				resps = map[string]any{}
				op["responses"] = resps
			}
			if _, exists := resps[status]; !exists {
				resps[status] = resp
			}
		}
	}
}

// consoleDoc describes the attempt console routes mounted under /api/v1
const consoleDoc = `{
  "openapi": "3.0.3",
  "info": {
    "title": "facegate operator console",
    "description": "Drives the liveness challenge and identity submission flow of a single kiosk"
  },
  "tags": [{"name": "Attempts"}, {"name": "Meta"}],
  "paths": {
    "/meta/health": {
      "get": {"tags": ["Meta"], "operationId": "metaHealth", "summary": "Liveness and uptime", "responses": {"200": {"description": "ok"}}}
    },
    "/meta/ready": {
      "get": {"tags": ["Meta"], "operationId": "metaReady", "summary": "Readiness with the journal check", "responses": {"200": {"description": "ok"}}}
    },
    "/meta/version": {
      "get": {"tags": ["Meta"], "operationId": "metaVersion", "summary": "Build and version info", "responses": {"200": {"description": "ok"}}}
    },
    "/attempts": {
      "post": {
        "tags": ["Attempts"],
        "operationId": "attemptStart",
        "summary": "Start a new attempt, discarding the current one",
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/StartInput"}}}
        },
        "responses": {
          "200": {"$ref": "#/components/responses/Snapshot"},
          "424": {"$ref": "#/components/responses/Error"}
        }
      }
    },
    "/attempts/ic": {
      "put": {
        "tags": ["Attempts"],
        "operationId": "attemptSetIC",
        "summary": "Update the IC number hint",
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ICInput"}}}
        },
        "responses": {"200": {"$ref": "#/components/responses/Snapshot"}}
      }
    },
    "/attempts/actions/complete": {
      "post": {
        "tags": ["Attempts"],
        "operationId": "attemptCompleteAction",
        "summary": "Confirm the current challenge action",
        "responses": {
          "200": {"$ref": "#/components/responses/Snapshot"},
          "409": {"$ref": "#/components/responses/Error"}
        }
      }
    },
    "/attempts/capture": {
      "post": {
        "tags": ["Attempts"],
        "operationId": "attemptCapture",
        "summary": "Capture a frame and submit it",
        "responses": {
          "200": {"$ref": "#/components/responses/Snapshot"},
          "409": {"$ref": "#/components/responses/Error"},
          "424": {"$ref": "#/components/responses/Error"}
        }
      }
    },
    "/attempts/current": {
      "get": {
        "tags": ["Attempts"],
        "operationId": "attemptCurrent",
        "summary": "Current attempt snapshot",
        "responses": {"200": {"$ref": "#/components/responses/Snapshot"}}
      }
    },
    "/attempts/outcomes": {
      "get": {
        "tags": ["Attempts"],
        "operationId": "attemptOutcomes",
        "summary": "Most recent finished attempts from the journal",
        "parameters": [
          {"name": "limit", "in": "query", "schema": {"type": "integer", "minimum": 1, "maximum": 200, "default": 50}}
        ],
        "responses": {
          "200": {
            "description": "ok",
            "content": {"application/json": {"schema": {"type": "array", "items": {"$ref": "#/components/schemas/OutcomeRecord"}}}}
          },
          "404": {"$ref": "#/components/responses/Error"}
        }
      }
    },
    "/attempts/events": {
      "get": {
        "tags": ["Attempts"],
        "operationId": "attemptEvents",
        "summary": "Server-sent snapshot stream",
        "responses": {
          "200": {"description": "text/event-stream of snapshot events", "content": {"text/event-stream": {"schema": {"type": "string"}}}}
        }
      }
    }
  },
  "components": {
    "responses": {
      "Snapshot": {
        "description": "ok",
        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Snapshot"}}}
      },
      "Error": {
        "description": "error",
        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ErrorResponse"}}}
      }
    },
    "schemas": {
      "StartInput": {
        "type": "object",
        "required": ["mode"],
        "properties": {
          "mode": {"type": "string", "enum": ["register", "verify"]},
          "ic_number": {"type": "string", "maxLength": 64, "example": "900101-14-5678"}
        }
      },
      "ICInput": {
        "type": "object",
        "properties": {"ic_number": {"type": "string", "maxLength": 64}}
      },
      "Progress": {
        "type": "object",
        "properties": {
          "state": {"type": "string", "enum": ["not_started", "in_progress", "satisfied"]},
          "required": {"type": "array", "items": {"type": "string"}},
          "completed": {"type": "array", "items": {"type": "string"}},
          "cursor": {"type": "integer"}
        }
      },
      "Snapshot": {
        "type": "object",
        "properties": {
          "seq": {"type": "integer"},
          "attempt_id": {"type": "string", "format": "uuid"},
          "mode": {"type": "string", "enum": ["register", "verify"]},
          "state": {"type": "string", "enum": ["idle", "awaiting_challenge", "challenge_in_progress", "ready_to_capture", "submitting", "succeeded", "failed_retryable", "failed_terminal"]},
          "ic_number": {"type": "string"},
          "ic_valid": {"type": "boolean"},
          "challenge_enabled": {"type": "boolean"},
          "progress": {"$ref": "#/components/schemas/Progress"},
          "current_action": {"type": "string", "example": "turn_head_left"},
          "current_label": {"type": "string", "example": "Turn head left"},
          "labels": {"type": "array", "items": {"type": "string"}},
          "can_capture": {"type": "boolean"},
          "message": {"type": "string"},
          "identity": {"type": "string"},
          "failure": {"type": "string", "enum": ["spoofing", "no_match", "invalid", "rejected", "network", "rate_limited", "protocol", "empty_challenge", "device"]},
          "error_code": {"type": "integer", "description": "numeric error code of the failure, omitted while none"},
          "restart_at": {"type": "string", "format": "date-time"}
        }
      },
      "OutcomeRecord": {
        "type": "object",
        "properties": {
          "attempt_id": {"type": "string", "format": "uuid"},
          "mode": {"type": "string"},
          "state": {"type": "string"},
          "failure": {"type": "string"},
          "message": {"type": "string"},
          "identity": {"type": "string"},
          "actions": {"type": "integer"},
          "started_at": {"type": "string", "format": "date-time"},
          "finished_at": {"type": "string", "format": "date-time"}
        }
      }
    }
  }
}`
