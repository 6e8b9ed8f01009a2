// Package docs holds the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g internal/transport/http/http.go -o internal/docs
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
        "/generate-qr": {
            "post": {
                "description": "Renders the text as a PNG QR code and returns it as a data URI together with\nthe detected content type, size, creation time and input length.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generate"],
                "summary": "Generate a QR code image",
                "parameters": [
                    {
                        "description": "Text and rendering options",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Generated symbol", "schema": {"$ref": "#/definitions/api.GenerateResponse"}},
                    "400": {"description": "Missing text or invalid options", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Rendering failed", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/generate-svg": {
            "post": {
                "description": "Returns a standalone SVG document. Colors may be given with or without the leading '#'.",
                "consumes": ["application/json"],
                "produces": ["image/svg+xml"],
                "tags": ["generate"],
                "summary": "Generate a QR code as SVG",
                "parameters": [
                    {
                        "description": "Text and rendering options",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "SVG document", "schema": {"type": "string"}},
                    "400": {"description": "Missing text or invalid options", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Rendering failed", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/generate-audio": {
            "post": {
                "description": "Returns base64 WAV audio when the server has a synthesizer, otherwise an acknowledgement.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["audio"],
                "summary": "Synthesize the text as speech",
                "parameters": [
                    {
                        "description": "Text to speak (at most 1000 characters)",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.AudioRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Synthesis result", "schema": {"$ref": "#/definitions/api.AudioResponse"}},
                    "400": {"description": "Missing or oversized text", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Synthesis failed", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.GenerateRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "size": {"type": "integer"},
                "qr_color": {"type": "string"},
                "bg_color": {"type": "string"},
                "error_correction": {"type": "string"}
            }
        },
        "api.Info": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "size": {"type": "string"},
                "created": {"type": "string"},
                "data_length": {"type": "integer"},
                "error_correction": {"type": "string"}
            }
        },
        "api.GenerateResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "qr_code": {"type": "string"},
                "info": {"$ref": "#/definitions/api.Info"},
                "error": {"type": "string"}
            }
        },
        "api.AudioRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "language": {"type": "string"}
            }
        },
        "api.AudioResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "text_length": {"type": "integer"},
                "audio": {"type": "string"},
                "content_type": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "service": {"type": "string"}
            }
        },
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "QR Code Generator API",
	Description:      "Generates QR code images and SVG documents, and synthesizes audio previews of their text.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
