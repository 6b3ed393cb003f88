package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fitness Booking API",
        "description": "Class listing and slot booking for a fitness studio",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Classes", "description": "Upcoming class catalog"},
        {"name": "Bookings", "description": "Slot reservations"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
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
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List upcoming classes",
                "parameters": [
                    {"name": "timezone", "in": "query", "type": "string", "description": "IANA timezone, defaults to Asia/Kolkata"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ClassListEnvelope"}},
                    "400": {"description": "Invalid timezone", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/book": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Book a class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/BookClassEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "No available slots", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Booking state could not be persisted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings made with an email",
                "parameters": [
                    {"name": "email", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BookingListEnvelope"}},
                    "400": {"description": "Missing or invalid email", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/export": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Download bookings made with an email",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "email", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Export document", "schema": {"type": "file"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "ClassView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "instructor": {"type": "string"},
                "datetime": {"type": "string", "format": "date-time"},
                "available_slots": {"type": "integer"}
            }
        },
        "Booking": {
            "type": "object",
            "properties": {
                "booking_id": {"type": "string"},
                "class_id": {"type": "string"},
                "class_name": {"type": "string"},
                "client_name": {"type": "string"},
                "client_email": {"type": "string"},
                "class_time": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "BookClassRequest": {
            "type": "object",
            "required": ["class_id", "client_name", "client_email"],
            "properties": {
                "class_id": {"type": "string"},
                "client_name": {"type": "string", "maxLength": 200},
                "client_email": {"type": "string", "format": "email"}
            }
        },
        "BookClassResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "booking_id": {"type": "string"}
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
                "meta": {"type": "object"}
            }
        },
        "ClassListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/ClassView"}},
                "meta": {"type": "object"}
            }
        },
        "BookingListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Booking"}},
                "meta": {"type": "object"}
            }
        },
        "BookClassEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/BookClassResponse"}
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
