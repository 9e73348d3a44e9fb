package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Seanutri API",
        "description": "Offshore training management: courses, classes, enrollments and digital certificates",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Users", "description": "User management"},
        {"name": "Companies", "description": "Client companies"},
        {"name": "Courses", "description": "Course catalogue"},
        {"name": "Instructors", "description": "Instructor roster"},
        {"name": "Classes", "description": "Scheduled classes and rosters"},
        {"name": "Enrollments", "description": "Enrollment lifecycle and evaluation"},
        {"name": "Verification", "description": "Public certificate verification"},
        {"name": "Notifications", "description": "Email templates and delivery logs"},
        {"name": "Dashboard", "description": "Headline counts"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/verificar/{code}": {
            "get": {
                "tags": ["Verification"],
                "summary": "Verify a certificate code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Verification result", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/certificates/{code}": {
            "post": {
                "tags": ["Verification"],
                "summary": "Render a certificate PDF and return a signed download token",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Download token", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Unknown code", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/certificates/download": {
            "get": {
                "tags": ["Verification"],
                "summary": "Download a certificate PDF",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF stream"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/enrollments/evaluate": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Record an evaluation result",
                "responses": {
                    "200": {"description": "Updated enrollment", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/api/v1/enrollments/bulk": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Bulk enroll company students into a class",
                "responses": {
                    "200": {"description": "Added and skipped students", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Class capacity exceeded", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
