// Package docs holds the OpenAPI document of the read-only signal API in the
// layout produced by swaggo/swag, so `swag init -g cmd/signal-bot/main.go
// -o internal/signalbot/docs` regenerates it in place.
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
        "/signals": {
            "get": {
                "description": "Get every signal, newest first, optionally filtered by lifecycle status",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "signals"
                ],
                "summary": "List signals",
                "parameters": [
                    {
                        "enum": [
                            "RUN_VALID",
                            "RUN_BE",
                            "STOPPED_BE",
                            "STOPPED_OUT",
                            "CLOSED"
                        ],
                        "type": "string",
                        "description": "Lifecycle status",
                        "name": "status",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/dto.SignalView"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/signals/{id}": {
            "get": {
                "description": "Get a single signal with its computed result and status text",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "signals"
                ],
                "summary": "Get a signal by ID",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Signal ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SignalView"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/summary": {
            "get": {
                "description": "Get the summary of active signals as it would be posted",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "summary"
                ],
                "summary": "Get the summary",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SummaryResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                }
            }
        },
        "dto.SignalView": {
            "type": "object",
            "properties": {
                "asset": {
                    "type": "string"
                },
                "closes": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/entity.Close"
                    }
                },
                "computedResult": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "direction": {
                    "type": "string"
                },
                "displayResult": {
                    "type": "string"
                },
                "entry": {
                    "type": "string"
                },
                "externalMessage": {
                    "$ref": "#/definitions/entity.MessageRef"
                },
                "extraMention": {
                    "$ref": "#/definitions/entity.Mention"
                },
                "id": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                },
                "resultOverride": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "statusText": {
                    "type": "string"
                },
                "stop": {
                    "type": "string"
                },
                "stopAtBreakeven": {
                    "type": "boolean"
                },
                "takeProfits": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "takeProfitsHit": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "updatedAt": {
                    "type": "string"
                },
                "validForReentry": {
                    "type": "boolean"
                },
                "version": {
                    "type": "integer"
                }
            }
        },
        "dto.SummaryResponse": {
            "type": "object",
            "properties": {
                "text": {
                    "type": "string"
                }
            }
        },
        "entity.Close": {
            "type": "object",
            "properties": {
                "price": {
                    "type": "string"
                },
                "sizePercent": {
                    "type": "number"
                }
            }
        },
        "entity.Mention": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                }
            }
        },
        "entity.MessageRef": {
            "type": "object",
            "properties": {
                "jumpUrl": {
                    "type": "string"
                },
                "messageId": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Trade Signal Bot API",
	Description:      "Read-only view of the stored trade signals and the active summary.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
