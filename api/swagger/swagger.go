package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Plant MOC API",
        "description": "Management of Change workflow service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session info"},
        {"name": "MOC", "description": "Change request lifecycle and approvals"},
        {"name": "DMOC", "description": "Departmental change requests"},
        {"name": "ApprovalLevels", "description": "Approval chain template"},
        {"name": "Departments", "description": "Department lookup"},
        {"name": "Dashboard", "description": "Workload summary"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/moc-requests": {
            "get": {
                "tags": ["MOC"],
                "summary": "List change requests",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["MOC"],
                "summary": "Open a new draft",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/moc-requests/{id}/submit": {
            "post": {
                "tags": ["MOC"],
                "summary": "Submit a draft into the workflow",
                "responses": {
                    "200": {"description": "Submitted"},
                    "409": {"description": "Invalid state"}
                }
            }
        },
        "/moc-requests/{id}/advance": {
            "post": {
                "tags": ["MOC"],
                "summary": "Advance to the next stage",
                "responses": {
                    "200": {"description": "Advanced"},
                    "409": {"description": "Gate unsatisfied or conflict"}
                }
            }
        },
        "/dmoc-requests": {
            "get": {
                "tags": ["DMOC"],
                "summary": "List departmental change requests",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["DMOC"],
                "summary": "Open a new DMOC draft",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Workload summary",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
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
