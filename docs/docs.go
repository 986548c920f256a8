// Package docs holds the OpenAPI document served at /swagger/*.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.tokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/notes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "List the caller's notes",
                "parameters": [
                    {"type": "integer", "description": "Notes to skip", "name": "skip", "in": "query"},
                    {"type": "integer", "description": "Page size, at most 100; omit to list every note", "name": "take", "in": "query"},
                    {"type": "string", "description": "id, title, createdAt or updatedAt", "name": "orderBy", "in": "query"},
                    {"type": "string", "description": "asc or desc", "name": "order", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Note"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "Create a note",
                "parameters": [
                    {"description": "Note content", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createNoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Note"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/notes/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "Search notes by title, body or tag",
                "parameters": [
                    {"type": "string", "description": "Substring of title or body, or an exact tag", "name": "query", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Note"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/notes/shared": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "Notes other users shared with the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SharedNotes"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/notes/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "Get one of the caller's notes",
                "parameters": [{"type": "integer", "description": "Note ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Note"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "Partially update a note",
                "parameters": [
                    {"type": "integer", "description": "Note ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateNoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Note"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "Delete a note",
                "parameters": [{"type": "integer", "description": "Note ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.DeleteResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/notes/{id}/share": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notes"],
                "summary": "Share a note with other users",
                "parameters": [
                    {"type": "integer", "description": "Note ID", "name": "id", "in": "path", "required": true},
                    {"description": "Users to share with", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.shareNoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Note"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "domain.Note": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "body": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "authorId": {"type": "integer"},
                "sharedWith": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.SharedNotes": {
            "type": "object",
            "properties": {
                "sharedNotes": {"type": "array", "items": {"$ref": "#/definitions/domain.Note"}}
            }
        },
        "domain.DeleteResult": {
            "type": "object",
            "properties": {"count": {"type": "integer"}}
        },
        "handler.ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.tokenResponse": {
            "type": "object",
            "properties": {"access_token": {"type": "string"}}
        },
        "handler.createNoteRequest": {
            "type": "object",
            "required": ["body", "title"],
            "properties": {
                "title": {"type": "string"},
                "body": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.updateNoteRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "body": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.shareNoteRequest": {
            "type": "object",
            "required": ["userIds"],
            "properties": {
                "userIds": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Notes API",
	Description:      "Multi-tenant notes with bearer-token authentication and sharing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
