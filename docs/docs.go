// Package docs registra el documento OpenAPI de la API para http-swagger.
// Se regenera con `swag init -g cmd/api/main.go`.
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
        "/medications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Listar medicamentos",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/medicationResponse"}}},
                    "500": {"description": "internal error", "schema": {"type": "string"}}
                }
            },
            "post": {
                "description": "Registra un medicamento con su horario. interval_minutes=0 significa una sola toma. start_time acepta RFC3339 o YYYY-MM-DDTHH:MM (UTC).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Registrar medicamento",
                "parameters": [
                    {"description": "Datos del medicamento", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createMedicationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/medicationResponse"}},
                    "400": {"description": "invalid json / horario inválido", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "description": "Cancela cualquier alarma activa y borra todos los medicamentos.",
                "tags": ["medications"],
                "summary": "Borrar todo",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/medications/{medicationID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Obtener medicamento",
                "parameters": [{"type": "string", "description": "ID del medicamento", "name": "medicationID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/medicationResponse"}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Actualizar medicamento",
                "parameters": [
                    {"type": "string", "description": "ID del medicamento", "name": "medicationID", "in": "path", "required": true},
                    {"description": "Campos a cambiar", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createMedicationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/medicationResponse"}},
                    "400": {"description": "horario inválido", "schema": {"type": "string"}},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "description": "Cancela la alarma activa del medicamento (si existe) y borra el registro.",
                "tags": ["medications"],
                "summary": "Borrar medicamento",
                "parameters": [{"type": "string", "description": "ID del medicamento", "name": "medicationID", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            }
        },
        "/alarm": {
            "get": {
                "description": "Devuelve la sesión de alarma activa y la cola de pendientes. 204 si no hay alarma ni pendientes.",
                "produces": ["application/json"],
                "tags": ["alarm"],
                "summary": "Alarma activa",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/reminders.AlarmStatus"}},
                    "204": {"description": "No Content"}
                }
            }
        },
        "/alarm/acknowledge": {
            "post": {
                "description": "Registra la toma de la alarma activa en el historial y cierra la alarma.",
                "produces": ["application/json"],
                "tags": ["alarm"],
                "summary": "Confirmar toma",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/medicationResponse"}},
                    "409": {"description": "no active alarm", "schema": {"type": "string"}}
                }
            }
        },
        "/alarm/postpone": {
            "post": {
                "description": "Pospone la alarma activa. No registra la toma.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["alarm"],
                "summary": "Posponer alarma",
                "parameters": [
                    {"description": "Minutos a posponer (default 10)", "name": "payload", "in": "body", "schema": {"$ref": "#/definitions/postponeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/postponeResponse"}},
                    "400": {"description": "invalid minutes", "schema": {"type": "string"}},
                    "409": {"description": "no active alarm", "schema": {"type": "string"}}
                }
            }
        },
        "/alarm/stop": {
            "post": {
                "description": "Cierra la alarma activa sin registrar la toma.",
                "tags": ["alarm"],
                "summary": "Detener alarma",
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "no active alarm", "schema": {"type": "string"}}
                }
            }
        },
        "/alarm/test": {
            "post": {
                "description": "Notifica una vez para el medicamento, sin abrir sesión.",
                "consumes": ["application/json"],
                "tags": ["alarm"],
                "summary": "Probar alarma",
                "parameters": [
                    {"description": "Medicamento", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/testAlarmRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "404": {"description": "medication not found", "schema": {"type": "string"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "produces": ["application/json"],
                "tags": ["alarm"],
                "summary": "Próximas tomas",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/reminders.ScheduleEntry"}}}
                }
            }
        }
    },
    "definitions": {
        "createMedicationRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "dose_description": {"type": "string"},
                "start_time": {"type": "string"},
                "interval_minutes": {"type": "integer"},
                "photo_ref": {"type": "string"}
            }
        },
        "medicationResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "dose_description": {"type": "string"},
                "start_time": {"type": "string"},
                "interval_minutes": {"type": "integer"},
                "photo_ref": {"type": "string"},
                "history": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "postponeRequest": {
            "type": "object",
            "properties": {"minutes": {"type": "integer"}}
        },
        "postponeResponse": {
            "type": "object",
            "properties": {
                "medication_id": {"type": "string"},
                "until": {"type": "string"}
            }
        },
        "testAlarmRequest": {
            "type": "object",
            "properties": {"medication_id": {"type": "string"}}
        },
        "reminders.Occurrence": {
            "type": "object",
            "properties": {
                "medication_id": {"type": "string"},
                "due_at": {"type": "string"},
                "origin": {"type": "string"}
            }
        },
        "reminders.AlarmStatus": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "medication_id": {"type": "string"},
                "due_at": {"type": "string"},
                "started_at": {"type": "string"},
                "title": {"type": "string"},
                "body": {"type": "string"},
                "icon": {"type": "string"},
                "deliveries": {"type": "integer"},
                "pending": {"type": "array", "items": {"$ref": "#/definitions/reminders.Occurrence"}}
            }
        },
        "reminders.ScheduleEntry": {
            "type": "object",
            "properties": {
                "medication_id": {"type": "string"},
                "name": {"type": "string"},
                "dose_description": {"type": "string"},
                "next_due": {"type": "string"},
                "postponed_until": {"type": "string"},
                "active": {"type": "boolean"},
                "completed": {"type": "boolean"},
                "invalid": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Medication Reminder API",
	Description:      "Recordatorios de medicación: horarios, alarma activa, confirmación y posposición de tomas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
