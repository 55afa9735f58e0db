// Package docs registers the swagger document of the colorizerd API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "colorizerd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/generate": {
            "post": {
                "description": "Runs one reset-then-filter pass of the loaded model on the image. Requests are served one at a time in arrival order.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generate"],
                "summary": "Colorize an image",
                "parameters": [
                    {
                        "description": "Image and render factor",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/meta": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Setup options and command schema",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.MetaResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Model lifecycle and queue status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.GenerateRequest": {
            "type": "object",
            "required": ["image"],
            "properties": {
                "image": {"type": "string", "example": "data:image/png;base64,iVBORw0KGgo..."},
                "render_factor": {"type": "number", "minimum": 7, "maximum": 45, "example": 35},
                "output_format": {"type": "string", "enum": ["png", "jpeg"], "example": "png"}
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "image": {"type": "string", "example": "data:image/png;base64,iVBORw0KGgo..."},
                "generation_id": {"type": "string", "example": "0b0c7bb5-0d56-4c52-9d0e-4f1a2a7c34b1"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.FieldSpec": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "render_factor"},
                "type": {"type": "string", "example": "number"},
                "min": {"type": "number"},
                "max": {"type": "number"},
                "step": {"type": "number"},
                "default": {"type": "number"}
            }
        },
        "types.CommandSpec": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "generate"},
                "inputs": {"type": "array", "items": {"$ref": "#/definitions/types.FieldSpec"}},
                "outputs": {"type": "array", "items": {"$ref": "#/definitions/types.FieldSpec"}}
            }
        },
        "types.OptionSpec": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "architecture"},
                "type": {"type": "string", "example": "category"},
                "choices": {"type": "array", "items": {"type": "string"}},
                "default": {"type": "string", "example": "Artistic"},
                "value": {"type": "string", "example": "Artistic"}
            }
        },
        "types.VariantWeights": {
            "type": "object",
            "properties": {
                "variant": {"type": "string", "example": "artistic"},
                "path": {"type": "string"},
                "size_mb": {"type": "integer"}
            }
        },
        "types.MetaResponse": {
            "type": "object",
            "properties": {
                "options": {"type": "array", "items": {"$ref": "#/definitions/types.OptionSpec"}},
                "commands": {"type": "array", "items": {"$ref": "#/definitions/types.CommandSpec"}},
                "weights": {"type": "array", "items": {"$ref": "#/definitions/types.VariantWeights"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "variant": {"type": "string", "example": "artistic"},
                "backend": {"type": "string", "example": "server"},
                "queue_len": {"type": "integer"},
                "inflight": {"type": "integer"},
                "max_queue_depth": {"type": "integer", "example": 32},
                "generations_total": {"type": "integer"},
                "failures_total": {"type": "integer"},
                "resets_total": {"type": "integer"},
                "last_error": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "colorizerd API",
	Description:      "HTTP API for single-model image colorization.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
