package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "NTUT Course System API",
        "description": "Course catalog browser and what-if timetable simulator",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Course catalog browsing"},
        {"name": "Calendar", "description": "Campus calendar"},
        {"name": "Standards", "description": "Graduation credit standards"},
        {"name": "Simulation", "description": "What-if timetable simulation"}
    ],
    "paths": {
        "/semesters": {
            "get": {
                "tags": ["Courses"],
                "summary": "List selectable semesters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{semesterId}/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses for a semester",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{semesterId}/courses/{courseId}/syllabus": {
            "get": {
                "tags": ["Courses"],
                "summary": "Course syllabus detail",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{semesterId}/departments": {
            "get": {
                "tags": ["Courses"],
                "summary": "Department and class tree",
                "parameters": [
                    {"name": "semesterId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/analytics/withdrawal-rates": {
            "get": {
                "tags": ["Courses"],
                "summary": "Teacher withdrawal-rate analytics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Campus calendar events",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/standards/{year}": {
            "get": {
                "tags": ["Standards"],
                "summary": "Departments with a published credit standard",
                "parameters": [
                    {"name": "year", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/standards/{year}/{department}": {
            "get": {
                "tags": ["Standards"],
                "summary": "Credit standard for one department",
                "parameters": [
                    {"name": "year", "in": "path", "required": true, "type": "string"},
                    {"name": "department", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/periods": {
            "get": {
                "tags": ["Simulation"],
                "summary": "Daily period catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/simulation": {
            "get": {
                "tags": ["Simulation"],
                "summary": "Current simulation state",
                "parameters": [
                    {"name": "X-Simulation-Profile", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/simulation/courses": {
            "post": {
                "tags": ["Simulation"],
                "summary": "Add a course to the simulation",
                "parameters": [
                    {"name": "X-Simulation-Profile", "in": "header", "type": "string"},
                    {"name": "course", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate or conflicting course", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Course has no scheduled time", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Simulation"],
                "summary": "Remove every course from the simulation",
                "parameters": [
                    {"name": "X-Simulation-Profile", "in": "header", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Cleared"}
                }
            }
        },
        "/simulation/courses/{id}": {
            "delete": {
                "tags": ["Simulation"],
                "summary": "Remove a course from the simulation",
                "parameters": [
                    {"name": "X-Simulation-Profile", "in": "header", "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/simulation/conflicts": {
            "post": {
                "tags": ["Simulation"],
                "summary": "Probe a course for schedule conflicts",
                "parameters": [
                    {"name": "X-Simulation-Profile", "in": "header", "type": "string"},
                    {"name": "course", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/simulation/export": {
            "get": {
                "tags": ["Simulation"],
                "summary": "Download the simulated timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "X-Simulation-Profile", "in": "header", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
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
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
