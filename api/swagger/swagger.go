package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CMS API",
        "description": "Headless content API with category-filtered notice feeds",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Notices", "description": "Korean and English notice feeds"},
        {"name": "Categories", "description": "Notice categories"},
        {"name": "Users", "description": "End-user registration and login"},
        {"name": "Upload", "description": "Media library"},
        {"name": "Admin", "description": "Admin panel authentication and tooling"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/api/notices": {
            "get": {
                "tags": ["Notices"],
                "summary": "List notices",
                "description": "recruitCode narrows the feed to the matching category. Other parameters follow the shared query grammar.",
                "parameters": [
                    {"$ref": "#/parameters/recruitCode"},
                    {"$ref": "#/parameters/sort"},
                    {"$ref": "#/parameters/fields"},
                    {"$ref": "#/parameters/populate"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/pageSize"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/notices/{id}": {
            "get": {
                "tags": ["Notices"],
                "summary": "Get notice",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/notice-ens": {
            "get": {
                "tags": ["Notices"],
                "summary": "List English notices",
                "parameters": [
                    {"$ref": "#/parameters/recruitCode"},
                    {"$ref": "#/parameters/sort"},
                    {"$ref": "#/parameters/fields"},
                    {"$ref": "#/parameters/populate"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/pageSize"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/notice-ens/{id}": {
            "get": {
                "tags": ["Notices"],
                "summary": "Get English notice",
                "parameters": [{"$ref": "#/parameters/id"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/categories": {
            "get": {
                "tags": ["Categories"],
                "summary": "List categories",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}}
            }
        },
        "/api/category-ens": {
            "get": {
                "tags": ["Categories"],
                "summary": "List English categories",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}}
            }
        },
        "/api/auth/local/register": {
            "post": {
                "tags": ["Users"],
                "summary": "Register end user",
                "responses": {
                    "200": {"description": "JWT and user"},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/auth/local": {
            "post": {
                "tags": ["Users"],
                "summary": "Log in end user",
                "responses": {
                    "200": {"description": "JWT and user"},
                    "400": {"description": "Invalid identifier or password", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Current end user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/upload": {
            "post": {
                "tags": ["Upload"],
                "summary": "Upload files",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "files", "in": "formData", "type": "file", "required": true}],
                "responses": {
                    "201": {"description": "Created"},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/upload/files": {
            "get": {
                "tags": ["Upload"],
                "summary": "List files",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Admin"],
                "summary": "Admin login",
                "responses": {"200": {"description": "Token and admin user"}, "400": {"description": "Invalid credentials"}}
            }
        },
        "/admin/api-tokens": {
            "get": {
                "tags": ["Admin"],
                "summary": "List API tokens",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Create API token",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Token with plain access key"}}
            }
        }
    },
    "parameters": {
        "id": {"name": "id", "in": "path", "type": "integer", "required": true},
        "recruitCode": {"name": "recruitCode", "in": "query", "type": "string"},
        "sort": {"name": "sort", "in": "query", "type": "string", "description": "field:asc or field:desc, comma separated"},
        "fields": {"name": "fields", "in": "query", "type": "string"},
        "populate": {"name": "populate", "in": "query", "type": "string"},
        "page": {"name": "pagination[page]", "in": "query", "type": "integer"},
        "pageSize": {"name": "pagination[pageSize]", "in": "query", "type": "integer"}
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "pageCount": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "Error": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "meta": {"type": "object"}
            }
        },
        "ListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"type": "object"}},
                "meta": {
                    "type": "object",
                    "properties": {"pagination": {"$ref": "#/definitions/Pagination"}}
                }
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/Error"}
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
