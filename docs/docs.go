// Package docs registers the OpenAPI document of the sensor API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/resources.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/resources.HealthResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Event counters",
                "parameters": [
                    {"type": "string", "description": "Window as a Go duration, e.g. 15m (default 1h)", "name": "window", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "object", "additionalProperties": {"type": "integer"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/sensors": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "List sensors",
                "parameters": [
                    {"type": "integer", "description": "Rows to skip", "name": "skip", "in": "query"},
                    {"type": "integer", "description": "Maximum rows (default 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Sensor"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "Register a sensor",
                "parameters": [
                    {"description": "Sensor details", "name": "sensor", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SensorCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Sensor"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/sensors/near": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "Find sensors near a point",
                "parameters": [
                    {"type": "number", "description": "Latitude", "name": "latitude", "in": "query", "required": true},
                    {"type": "number", "description": "Longitude", "name": "longitude", "in": "query", "required": true},
                    {"type": "number", "description": "Radius in metres", "name": "radius", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.SensorView"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/sensors/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "Get a sensor by ID",
                "parameters": [{"type": "integer", "description": "Sensor ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Sensor"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["sensors"],
                "summary": "Delete a sensor",
                "parameters": [{"type": "integer", "description": "Sensor ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/sensors/{id}/data": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "Get sensor data",
                "parameters": [{"type": "integer", "description": "Sensor ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SensorView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sensors"],
                "summary": "Record telemetry",
                "parameters": [
                    {"type": "integer", "description": "Sensor ID", "name": "id", "in": "path", "required": true},
                    {"description": "Readings", "name": "data", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SensorDataRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SensorView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "errors.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "integer"},
                "request_id": {"type": "string"},
                "details": {}
            }
        },
        "models.Sensor": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "joined_at": {"type": "string"}
            }
        },
        "models.SensorCreateRequest": {
            "type": "object",
            "required": ["name", "longitude", "latitude", "type", "mac_address"],
            "properties": {
                "name": {"type": "string"},
                "longitude": {"type": "number"},
                "latitude": {"type": "number"},
                "type": {"type": "string"},
                "mac_address": {"type": "string"},
                "manufacturer": {"type": "string"},
                "model": {"type": "string"},
                "serie_number": {"type": "string"},
                "firmware_version": {"type": "string"}
            }
        },
        "models.SensorDataRequest": {
            "type": "object",
            "required": ["battery_level", "last_seen"],
            "properties": {
                "temperature": {"type": "number"},
                "humidity": {"type": "number"},
                "battery_level": {"type": "number"},
                "last_seen": {"type": "string"},
                "velocity": {"type": "number"}
            }
        },
        "models.SensorView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "joined_at": {"type": "string"},
                "last_seen": {"type": "string"},
                "type": {"type": "string"},
                "mac_address": {"type": "string"},
                "battery_level": {"type": "number"},
                "temperature": {"type": "number"},
                "humidity": {"type": "number"},
                "velocity": {"type": "number"}
            }
        },
        "resources.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "version": {"type": "string"},
                "stores": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Geosensor API",
	Description:      "Registration, telemetry and proximity search for IoT sensors.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
