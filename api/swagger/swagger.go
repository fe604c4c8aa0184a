package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kurskollen API",
        "description": "Course review platform backend",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Registration, login and session lifecycle"},
        {"name": "Catalog", "description": "Programs, specializations, courses and tags"},
        {"name": "Selection", "description": "One-time academic selections"},
        {"name": "Reviews", "description": "Review create, edit and delete"},
        {"name": "Feed", "description": "Composed review feed"},
        {"name": "Feedback", "description": "Platform feedback"}
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
        "/feed": {
            "get": {
                "tags": ["Feed"],
                "summary": "Paginated review feed scoped to the caller's visible courses",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["newest", "top_rated", "professor", "material", "peers"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Courses visible to the caller",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reviews": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Post a review",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/me/masters-degree": {
            "put": {
                "tags": ["Selection"],
                "summary": "Permanently select a master's degree",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Selection already made"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Kurskollen API",
	Description:      "Course review platform backend",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
