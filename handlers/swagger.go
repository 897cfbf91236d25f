package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the catalog API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>autokatalog API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the catalog routes.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "autokatalog", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/auth/login": {
      "post": {
        "summary": "Sign in with username and password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "access token, user and session idle timeout" }, "400": { "description": "missing fields" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } }
      }
    },
    "/api/auth/logout": { "post": { "summary": "End the current session", "security": [{"bearer": []}], "responses": { "200": { "description": "logged out" } } } },
    "/api/auth/me": { "get": { "summary": "Current user", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "401": { "description": "not signed in" } } } },
    "/api/users": {
      "get": { "summary": "List accounts (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "users without password hashes" } } },
      "post": { "summary": "Create account (admin)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "409": { "description": "username taken" } } }
    },
    "/api/users/{id}": {
      "put": { "summary": "Update account (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" }, "404": { "description": "unknown user" } } },
      "delete": { "summary": "Delete account (admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" } } }
    },
    "/api/brands": {
      "get": { "summary": "List brands", "responses": { "200": { "description": "sorted brand names" } } },
      "post": { "summary": "Add brand (editor)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "409": { "description": "exists" } } }
    },
    "/api/brands/{name}": { "delete": { "summary": "Delete brand (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" }, "404": { "description": "unknown brand" } } } },
    "/api/categories": {
      "get": { "summary": "List categories", "responses": { "200": { "description": "categories" } } },
      "post": { "summary": "Add category (editor)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "409": { "description": "exists" } } }
    },
    "/api/categories/{name}": {
      "put": { "summary": "Rename or update category (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete category (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" } } }
    },
    "/api/cars": {
      "get": {
        "summary": "List published entries",
        "parameters": [
          {"name":"brand","in":"query","schema":{"type":"string"}},
          {"name":"bodyType","in":"query","schema":{"type":"string"}},
          {"name":"q","in":"query","schema":{"type":"string"}},
          {"name":"yearFrom","in":"query","schema":{"type":"integer"}},
          {"name":"yearTo","in":"query","schema":{"type":"integer"}}
        ],
        "responses": { "200": { "description": "cars" } }
      },
      "post": { "summary": "Create a published entry (editor, multipart with images)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "400": { "description": "invalid input" } } }
    },
    "/api/cars/{id}": {
      "get": { "summary": "Get a published entry", "responses": { "200": { "description": "car" }, "404": { "description": "unknown entry" } } },
      "put": { "summary": "Edit a published entry (editor, keepImages selects retained images)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" }, "400": { "description": "invalid input" }, "404": { "description": "unknown entry" } } },
      "delete": { "summary": "Delete a published entry and its images (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" } } }
    },
    "/api/pending": {
      "get": { "summary": "List submissions (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "pending" } } },
      "post": { "summary": "Submit an entry for review (public, multipart with images)", "responses": { "201": { "description": "stored" }, "400": { "description": "invalid input" }, "429": { "description": "rate limited" } } }
    },
    "/api/pending/{id}": { "get": { "summary": "Get a submission (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "pending" }, "404": { "description": "unknown submission" } } } },
    "/api/pending/{id}/approve": { "post": { "summary": "Publish a submission (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "car" }, "404": { "description": "unknown submission" } } } },
    "/api/pending/{id}/reject": { "post": { "summary": "Reject a submission and delete its images (editor)", "security": [{"bearer": []}], "responses": { "200": { "description": "rejected" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
