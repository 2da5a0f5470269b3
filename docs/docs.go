// Package docs mô tả Swagger cho API đặt chỗ, được đăng ký với swag khi import.
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
        "/reservations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Danh sách đặt chỗ của người dùng hiện tại",
                "parameters": [
                    {"type": "string", "description": "Lọc trạng thái, phân tách bởi dấu phẩy", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.ResponseTotal"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Người thuê gửi yêu cầu đặt chỗ",
                "parameters": [
                    {"description": "Thông tin đặt chỗ", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateReservationRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/reservations/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Chi tiết đặt chỗ",
                "parameters": [
                    {"type": "integer", "description": "ID đặt chỗ", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/reservations/{id}/refund-quote": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Số tiền hoàn dự kiến nếu hủy/yêu cầu hoàn tiền ngay bây giờ",
                "parameters": [
                    {"type": "integer", "description": "ID đặt chỗ", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/reservations/{id}/cancellation": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Người thuê hủy đặt chỗ trước khi dọn vào",
                "parameters": [
                    {"type": "integer", "description": "ID đặt chỗ", "name": "id", "in": "path", "required": true},
                    {"description": "Lý do, mô tả và minh chứng", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CancellationRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/reservations/{id}/refund-request": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Người thuê yêu cầu hoàn tiền trong 24h sau khi dọn vào",
                "parameters": [
                    {"type": "integer", "description": "ID đặt chỗ", "name": "id", "in": "path", "required": true},
                    {"description": "Lý do, mô tả và minh chứng", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CancellationRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/admin/reservations/{id}/refund/settle": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Quản trị viên ghi nhận kết quả hoàn tiền",
                "parameters": [
                    {"type": "integer", "description": "ID đặt chỗ", "name": "id", "in": "path", "required": true},
                    {"description": "Kết quả", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SettleRefundRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        }
    },
    "definitions": {
        "dto.CreateReservationRequest": {
            "type": "object",
            "properties": {
                "listingId": {"type": "integer"},
                "advertiserId": {"type": "integer"},
                "scheduledDate": {"type": "string"},
                "amount": {"type": "number"},
                "serviceFee": {"type": "number"},
                "currency": {"type": "string"}
            }
        },
        "dto.CancellationRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "details": {"type": "string"},
                "proofUrls": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.SettleRefundRequest": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "note": {"type": "string"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "mess": {"type": "string"},
                "errorCode": {"type": "string"},
                "data": {}
            }
        },
        "response.ResponseTotal": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "mess": {"type": "string"},
                "data": {},
                "total": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Rentflow API",
	Description:      "Vòng đời đặt chỗ thuê nhà, hủy và hoàn tiền.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
