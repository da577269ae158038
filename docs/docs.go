// Package docs holds the OpenAPI description of the scorer API served at /swagger.
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
                "tags": ["ops"],
                "summary": "Liveness probe with a metrics summary",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Operations, selectable error types and the penalty table",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.CatalogResponse"}}}
            }
        },
        "/api/score": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scoring"],
                "summary": "Score one operation without storing it",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.ScoreRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ScoreResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Open an operator session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.SessionResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Session records and state",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SessionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "End a session",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/sessions/{id}/records": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Add an operation record",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "entry", "required": true, "schema": {"$ref": "#/definitions/session.Entry"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/session.Outcome"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Clear all records and results",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Outcome"}}}
            }
        },
        "/api/sessions/{id}/score": {
            "post": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Score every record and rebuild the aggregates",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Outcome"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/api/sessions/{id}/results/operations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Per-operation score table",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/report.TableView"}}}
            }
        },
        "/api/sessions/{id}/results/employees": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Employees with daily results",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EmployeesResponse"}}}
            }
        },
        "/api/sessions/{id}/results/daily": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Daily averages of one employee",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "string", "in": "query", "name": "employee", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/report.DailySeries"}}}
            }
        },
        "/api/sessions/{id}/results/overall": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Overall average per employee",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/report.OverallBars"}}}
            }
        },
        "/api/sessions/{id}/charts/daily": {
            "get": {
                "produces": ["text/html"],
                "tags": ["charts"],
                "summary": "Daily line chart of one employee",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "string", "in": "query", "name": "employee", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "no data"}}
            }
        },
        "/api/sessions/{id}/charts/overall": {
            "get": {
                "produces": ["text/html"],
                "tags": ["charts"],
                "summary": "Overall bar chart",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "no data"}}
            }
        }
    },
    "definitions": {
        "errors.AppError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "category": {"type": "string"},
                "http_status": {"type": "integer"},
                "request_id": {"type": "string"}
            }
        },
        "session.Entry": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "date": {"type": "string", "example": "2024-01-01"},
                "operation_description": {"type": "string"},
                "operation_remark": {"type": "string"},
                "completion_degree": {"type": "number", "example": 80},
                "error_types": {"type": "array", "items": {"type": "string"}},
                "safety_hazard": {"type": "boolean"},
                "other_error_remark": {"type": "string"}
            }
        },
        "session.Outcome": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "message": {"type": "string"},
                "records": {"type": "integer"},
                "generation": {"type": "integer"}
            }
        },
        "types.ScoreRequest": {
            "type": "object",
            "properties": {
                "completion_degree": {"type": "number", "example": 92},
                "error_types": {"type": "array", "items": {"type": "string"}},
                "safety_hazard": {"type": "boolean"}
            }
        },
        "types.ScoreResponse": {
            "type": "object",
            "properties": {
                "score": {"type": "integer"},
                "completion_degree": {"type": "number"},
                "error_types": {"type": "array", "items": {"type": "string"}},
                "breakdown": {
                    "type": "object",
                    "properties": {
                        "total_penalty": {"type": "integer"},
                        "raw_score": {"type": "number"},
                        "severe": {"type": "boolean"},
                        "rule": {"type": "string"}
                    }
                }
            }
        },
        "types.CatalogResponse": {
            "type": "object",
            "properties": {
                "operations": {"type": "array", "items": {"type": "string"}},
                "error_types": {"type": "array", "items": {"type": "string"}},
                "severe": {"type": "string"},
                "other": {"type": "string"},
                "default_completion": {"type": "number"}
            }
        },
        "types.SessionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "created_at": {"type": "string"},
                "generation": {"type": "integer"},
                "has_results": {"type": "boolean"},
                "records": {"type": "array", "items": {"type": "object"}}
            }
        },
        "types.EmployeesResponse": {
            "type": "object",
            "properties": {
                "employees": {"type": "array", "items": {"type": "string"}},
                "no_data": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "report.TableView": {
            "type": "object",
            "properties": {
                "rows": {"type": "array", "items": {"type": "object"}},
                "no_data": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "report.DailySeries": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "points": {"type": "array", "items": {"type": "object"}},
                "no_data": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "report.OverallBars": {
            "type": "object",
            "properties": {
                "bars": {"type": "array", "items": {"type": "object"}},
                "no_data": {"type": "boolean"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Clearance Scorer API",
	Description:      "Records line-clearance operations, scores them against the penalty table and aggregates daily and overall employee averages.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
