// Package docs registers the Swagger spec served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/roster": {
            "get": {
                "description": "Returns the last known position of every active vendor. With lat and lng the list is sorted by distance and limited to radius meters.",
                "produces": ["application/json"],
                "tags": ["Roster"],
                "summary": "Live vendor roster",
                "parameters": [
                    {"type": "number", "description": "origin latitude", "name": "lat", "in": "query"},
                    {"type": "number", "description": "origin longitude", "name": "lng", "in": "query"},
                    {"type": "number", "description": "max distance in meters", "name": "radius", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object"}}
                }
            }
        },
        "/roster/{vendor_id}": {
            "get": {
                "description": "Returns the last known position of one vendor and whether it is inside the notification radius.",
                "produces": ["application/json"],
                "tags": ["Roster"],
                "summary": "Single vendor position",
                "parameters": [
                    {"type": "integer", "description": "vendor id", "name": "vendor_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"type": "object"}}
                }
            }
        },
        "/sharing": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sharing"],
                "summary": "Sharing status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}
            }
        },
        "/sharing/start": {
            "post": {
                "description": "Starts broadcasting this device's position for the vendor. Starting an active session is a no-op.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sharing"],
                "summary": "Start sharing",
                "parameters": [
                    {"description": "vendor to share as", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StartSharingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object"}}
                }
            }
        },
        "/sharing/stop": {
            "post": {
                "description": "Ends the sharing session. Stopping an idle session only clears the persisted flag.",
                "produces": ["application/json"],
                "tags": ["Sharing"],
                "summary": "Stop sharing",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SessionResponse"}}}
            }
        },
        "/favorites": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Favorites"],
                "summary": "Favorite vendors",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/favorites/{vendor_id}": {
            "post": {
                "description": "Proximity alerts are limited to favorites once the list is not empty",
                "produces": ["application/json"],
                "tags": ["Favorites"],
                "summary": "Add a favorite vendor",
                "parameters": [{"type": "integer", "description": "vendor id", "name": "vendor_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Favorites"],
                "summary": "Remove a favorite vendor",
                "parameters": [{"type": "integer", "description": "vendor id", "name": "vendor_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object"}}
                }
            }
        },
        "/settings/notifications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Notification settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.NotificationSettings"}}}
            },
            "put": {
                "description": "Partial update. The proximity watcher restarts or stops to follow the new settings.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Update notification settings",
                "parameters": [
                    {"description": "new settings", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.NotificationSettings"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "dto.StartSharingRequest": {
            "type": "object",
            "properties": {"vendor_id": {"type": "integer"}}
        },
        "dto.SessionResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "vendor_id": {"type": "integer"},
                "session_id": {"type": "string"},
                "started_at": {"type": "string"},
                "persisted": {"type": "boolean"}
            }
        },
        "dto.UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "radius": {"type": "integer"}
            }
        },
        "models.NotificationSettings": {
            "type": "object",
            "properties": {
                "enabled": {"type": "boolean"},
                "radius": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Vendor Location Sync API",
	Description:      "Local control API of the vendor location sync agent.",
	InfoInstanceName: "vendorsync",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
