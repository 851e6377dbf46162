// Package docs регистрирует OpenAPI-описание REST API для swaggo.
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
        "/rest/products": {
            "get": {
                "description": "Параметры jqGrid. Неизвестные sidx и sord заменяются на id и asc.",
                "produces": ["application/json", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["products"],
                "summary": "Страница товаров",
                "parameters": [
                    {"type": "integer", "default": 20, "description": "Размер страницы (1..500)", "name": "rows", "in": "query"},
                    {"type": "integer", "default": 1, "description": "Номер страницы с 1", "name": "page", "in": "query"},
                    {"enum": ["id", "name", "price", "version"], "type": "string", "description": "Поле сортировки", "name": "sidx", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Направление", "name": "sord", "in": "query"},
                    {"type": "boolean", "description": "Выгрузить страницу в xlsx", "name": "export_as_excel", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Создаёт товар с версией 0. Поле version можно не передавать или передать 0.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Создание товара",
                "parameters": [
                    {"description": "Товар", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ProductRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/rest/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Товар по id",
                "parameters": [
                    {"type": "integer", "description": "ID товара", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Применяется, только если version совпадает с сохранённой. Версия увеличивается на 1.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Изменение товара",
                "parameters": [
                    {"type": "integer", "description": "ID товара", "name": "id", "in": "path", "required": true},
                    {"description": "Новые данные и ожидаемая версия", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ProductRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Версия устарела", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Применяется, только если version совпадает с сохранённой.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Удаление товара",
                "parameters": [
                    {"type": "integer", "description": "ID товара", "name": "id", "in": "path", "required": true},
                    {"description": "Ожидаемая версия", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.DeleteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.DeleteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Версия устарела", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.DeleteRequest": {
            "type": "object",
            "properties": {"version": {"type": "integer", "example": 1}}
        },
        "http.DeleteResponse": {
            "type": "object",
            "properties": {
                "deleted": {"type": "boolean", "example": true},
                "id": {"type": "integer", "example": 1},
                "version": {"type": "integer", "example": 2}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "http.ListResponse": {
            "type": "object",
            "properties": {
                "page": {"type": "integer", "example": 1},
                "records": {"type": "integer", "example": 1},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/http.ProductResponse"}},
                "total": {"type": "integer", "example": 1}
            }
        },
        "http.ProductRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Product 1"},
                "price": {"type": "number", "example": 10.5},
                "version": {"type": "integer", "example": 0}
            }
        },
        "http.ProductResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1},
                "name": {"type": "string", "example": "Product 1"},
                "price": {"type": "number", "example": 10.5},
                "version": {"type": "integer", "example": 0}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Fontus products API",
	Description:      "Реестр товаров с оптимистичной блокировкой по версии.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
