package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Dossier Flow API",
        "description": "Multi-stage regulatory dossier review workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "auth", "description": "Session management"},
        {"name": "workflow", "description": "Dossier transitions"},
        {"name": "applications", "description": "Dossier read views"},
        {"name": "inbox", "description": "Pending-work projections"},
        {"name": "reports", "description": "Asynchronous performance reports"},
        {"name": "users", "description": "Reviewer accounts"},
        {"name": "companies", "description": "Applicant organisations"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Authenticate and obtain a token pair",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "Token pair issued"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Rotate a refresh token",
                "responses": {"200": {"description": "New token pair"}, "401": {"description": "Expired or revoked"}}
            }
        },
        "/applications": {
            "get": {
                "tags": ["applications"],
                "summary": "List dossiers",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "point", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["workflow"],
                "summary": "Register a new dossier at intake",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}
            }
        },
        "/applications/number/{number}": {
            "get": {
                "tags": ["applications"],
                "summary": "Dossier detail looked up by application number",
                "parameters": [{"name": "number", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/applications/{id}": {
            "get": {
                "tags": ["applications"],
                "summary": "Dossier detail with reconciled point and open clocks",
                "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/applications/{id}/push": {
            "post": {"tags": ["workflow"], "summary": "Push a triaged dossier to divisions", "responses": {"200": {"description": "OK"}, "404": {"description": "No open intake segment"}, "409": {"description": "Duplicate open segment"}}}
        },
        "/applications/{id}/assign": {
            "post": {"tags": ["workflow"], "summary": "Assign a divisional dossier to a reviewer", "responses": {"200": {"description": "OK"}}}
        },
        "/applications/{id}/submit": {
            "post": {"tags": ["workflow"], "summary": "Submit a technical assessment", "responses": {"200": {"description": "OK"}, "403": {"description": "Wrong reviewer"}}}
        },
        "/applications/{id}/endorse": {
            "post": {"tags": ["workflow"], "summary": "Endorse a divisional recommendation upward", "responses": {"200": {"description": "OK"}}}
        },
        "/applications/{id}/rework": {
            "post": {"tags": ["workflow"], "summary": "Return a dossier to its technical reviewer", "responses": {"200": {"description": "OK"}}}
        },
        "/applications/{id}/clearance": {
            "post": {"tags": ["workflow"], "summary": "Issue the final Director clearance", "responses": {"200": {"description": "OK"}, "404": {"description": "No open director segment"}}}
        },
        "/applications/{id}/reject": {
            "post": {"tags": ["workflow"], "summary": "Reject a dossier back down from the Director desk", "responses": {"200": {"description": "OK"}}}
        },
        "/applications/{id}/trail": {
            "get": {"tags": ["applications"], "summary": "Append-only comment trail", "responses": {"200": {"description": "OK"}}}
        },
        "/applications/{id}/timeline": {
            "get": {"tags": ["applications"], "summary": "Full segment timeline", "responses": {"200": {"description": "OK"}}}
        },
        "/applications/{id}/clocks": {
            "get": {"tags": ["applications"], "summary": "SLA clocks over open segments", "responses": {"200": {"description": "OK"}}}
        },
        "/applications/{id}/certificate": {
            "get": {"tags": ["applications"], "summary": "Signed download link for the clearance certificate", "responses": {"200": {"description": "OK"}, "404": {"description": "No certificate archived"}}}
        },
        "/inbox/divisions/{division}": {
            "get": {
                "tags": ["inbox"],
                "summary": "Pending work for a division at a workflow point",
                "parameters": [
                    {"name": "division", "in": "path", "type": "string", "required": true},
                    {"name": "point", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/inbox/staff/{id}": {
            "get": {"tags": ["inbox"], "summary": "A reviewer's open assignments", "responses": {"200": {"description": "OK"}}}
        },
        "/inbox/staff/{id}/clocks": {
            "get": {"tags": ["inbox"], "summary": "SLA clocks over a reviewer's workload", "responses": {"200": {"description": "OK"}}}
        },
        "/reports": {
            "post": {"tags": ["reports"], "summary": "Request a reviewer performance report", "responses": {"202": {"description": "Accepted"}}}
        },
        "/reports/{id}": {
            "get": {"tags": ["reports"], "summary": "Report job status", "responses": {"200": {"description": "OK"}}}
        },
        "/users": {
            "get": {"tags": ["users"], "summary": "List reviewer accounts", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["users"], "summary": "Register a reviewer account", "responses": {"201": {"description": "Created"}}}
        },
        "/users/{id}/performance": {
            "get": {"tags": ["users"], "summary": "A reviewer's closed-segment aggregate", "responses": {"200": {"description": "OK"}}}
        },
        "/companies": {
            "get": {"tags": ["companies"], "summary": "List applicant organisations", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["companies"], "summary": "Register an applicant organisation", "responses": {"201": {"description": "Created"}}}
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
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
