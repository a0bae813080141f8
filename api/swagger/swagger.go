package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Workshop Availability API",
        "description": "Computes bookable appointment slots for service providers.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Availability", "description": "Bookable slot computation"},
        {"name": "Operations", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List bookable slots of a provider",
                "description": "Returns every slot of the working window with an availability flag. An empty list means the provider is not operating on that date.",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "providerId", "in": "query", "required": true, "type": "string", "description": "Provider ID (aliases: provider_id, workshopId)"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date", "description": "Calendar date (YYYY-MM-DD)"},
                    {"name": "duration", "in": "query", "required": false, "type": "integer", "default": 60, "description": "Service duration in minutes"},
                    {"name": "staffId", "in": "query", "required": false, "type": "string", "description": "Staff member ID (aliases: staff_id, employeeId)"}
                ],
                "responses": {
                    "200": {"description": "Slots", "schema": {"$ref": "#/definitions/SlotsEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Provider or staff member not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Store failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/providers/{providerId}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List bookable slots of a provider",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "providerId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "duration", "in": "query", "required": false, "type": "integer", "default": 60},
                    {"name": "staffId", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Slots", "schema": {"$ref": "#/definitions/SlotsEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Provider or staff member not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "All dependencies answer"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics exposition"}
                }
            }
        }
    },
    "definitions": {
        "SlotAvailability": {
            "type": "object",
            "properties": {
                "time": {"type": "string", "example": "09:30"},
                "available": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "SlotsEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/SlotAvailability"}},
                "meta": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
