// Package docs registers the OpenAPI description served under /swagger.
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
        "/admin/analytics/{business_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Аналитика бизнеса",
                "parameters": [
                    {"type": "string", "description": "ID бизнеса", "name": "business_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/queue.Summary"}},
                    "503": {"description": "Хранилище недоступно (STORE_UNAVAILABLE)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/business/{business_id}/queues": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Очереди бизнеса",
                "parameters": [
                    {"type": "string", "description": "ID бизнеса", "name": "business_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Queue"}}}
                }
            }
        },
        "/admin/businesses/{business_id}/queues": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Создание очереди",
                "parameters": [
                    {"type": "string", "description": "ID бизнеса", "name": "business_id", "in": "path", "required": true},
                    {"description": "Название очереди", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateQueueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Queue"}},
                    "400": {"description": "Ошибка валидации (VALIDATION_ERROR)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/queues/{queue_id}/leave/{user_id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Выход из очереди",
                "parameters": [
                    {"type": "string", "description": "ID очереди", "name": "queue_id", "in": "path", "required": true},
                    {"type": "string", "description": "ID пользователя", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Успешный выход из очереди", "schema": {"$ref": "#/definitions/response.EntryResponse"}},
                    "404": {"description": "Запись не найдена (ENTRY_NOT_FOUND)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Запись уже не в ожидании (INVALID_TRANSITION)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/queues/{queue_id}/status/{user_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Статус записи",
                "parameters": [
                    {"type": "string", "description": "ID очереди", "name": "queue_id", "in": "path", "required": true},
                    {"type": "string", "description": "ID пользователя", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.EntryResponse"}},
                    "404": {"description": "Запись не найдена (ENTRY_NOT_FOUND)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Смена статуса",
                "parameters": [
                    {"type": "string", "description": "ID очереди", "name": "queue_id", "in": "path", "required": true},
                    {"type": "string", "description": "ID пользователя", "name": "user_id", "in": "path", "required": true},
                    {"description": "Новый статус", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.EntryResponse"}},
                    "400": {"description": "Ошибка валидации (VALIDATION_ERROR)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Запись не найдена (ENTRY_NOT_FOUND)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Недопустимый переход (INVALID_TRANSITION)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/admin/users/{user_id}/queues": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Записи пользователя",
                "parameters": [
                    {"type": "string", "description": "ID пользователя", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "List of entries the user holds", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.QueueEntry"}}}
                }
            }
        },
        "/api/queues/{queue_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Состояние очереди",
                "parameters": [
                    {"type": "string", "description": "ID очереди", "name": "queue_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.QueueEntry"}}},
                    "404": {"description": "Очередь не найдена (QUEUE_NOT_FOUND)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/user/queues/{queue_id}/join/{user_id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Вступление в очередь",
                "parameters": [
                    {"type": "string", "description": "ID очереди", "name": "queue_id", "in": "path", "required": true},
                    {"type": "string", "description": "ID пользователя", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Успешное вступление в очередь с указанием позиции", "schema": {"$ref": "#/definitions/response.EntryResponse"}},
                    "404": {"description": "Очередь не найдена (QUEUE_NOT_FOUND)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Уже в очереди (ALREADY_IN_QUEUE)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/user/queues/{queue_id}/position/{user_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Позиция в очереди",
                "parameters": [
                    {"type": "string", "description": "ID очереди", "name": "queue_id", "in": "path", "required": true},
                    {"type": "string", "description": "ID пользователя", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.EntryResponse"}},
                    "404": {"description": "Пользователь не в очереди (NOT_IN_QUEUE)", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ChangeStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["waiting", "served", "skipped"], "example": "served"}
            }
        },
        "handlers.CreateQueueRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "maxLength": 200, "example": "Приёмная"}
            }
        },
        "models.Queue": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "business_id": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.QueueEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "queue_id": {"type": "string"},
                "user_id": {"type": "string"},
                "position": {"type": "integer"},
                "status": {"type": "string", "enum": ["waiting", "served", "skipped"]},
                "joined_at": {"type": "string"}
            }
        },
        "queue.QueueSummary": {
            "type": "object",
            "properties": {
                "queue_id": {"type": "string"},
                "title": {"type": "string"},
                "total_users": {"type": "integer"},
                "served_users": {"type": "integer"},
                "skipped_users": {"type": "integer"},
                "waiting_users": {"type": "integer"}
            }
        },
        "queue.Summary": {
            "type": "object",
            "properties": {
                "business_id": {"type": "string"},
                "queues": {"type": "array", "items": {"$ref": "#/definitions/queue.QueueSummary"}},
                "total_queues": {"type": "integer"},
                "total_users": {"type": "integer"},
                "served_users": {"type": "integer"},
                "skipped_users": {"type": "integer"},
                "waiting_users": {"type": "integer"},
                "average_users_per_queue": {"type": "number"}
            }
        },
        "response.EntryResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "entry_id": {"type": "string"},
                "queue_id": {"type": "string"},
                "user_id": {"type": "string"},
                "status": {"type": "string", "example": "waiting"},
                "position": {"type": "integer", "example": 3}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "",
	Schemes:          []string{},
	Title:            "Waitline: виртуальные очереди",
	Description:      "",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
