package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the content service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>contentstore - Swagger</title>
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

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "contentstore", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Envelope": { "type": "object", "properties": { "message": {"type":"string"}, "content": {} } }
    },
    "parameters": {
      "key": { "name": "key", "in": "path", "required": true, "schema": {"type":"string"}, "description": "tenant key" }
    },
    "headers": {
      "Content-Id": { "schema": {"type":"string"}, "description": "id of the document the key resolved to, empty when unresolved" },
      "X-Replica-Synced": { "schema": {"type":"string","enum":["true","false"]} }
    }
  },
  "paths": {
    "/api/v1/content/{key}/all": {
      "get": {
        "summary": "Read the document, optionally filtered by field=value (case-insensitive)",
        "parameters": [ {"$ref":"#/components/parameters/key"}, {"name":"key","in":"query","schema":{"type":"string"}}, {"name":"value","in":"query","schema":{"type":"string"}} ],
        "responses": { "200": { "description": "Content fetched successfully." }, "404": { "description": "Not found" } }
      }
    },
    "/api/v1/content/{key}/{id}": {
      "get": {
        "summary": "Fetch one record by id",
        "parameters": [ {"$ref":"#/components/parameters/key"}, {"name":"id","in":"path","required":true,"schema":{"type":"string"}} ],
        "responses": { "200": { "description": "Content fetched successfully." }, "404": { "description": "Not found" } }
      },
      "put": {
        "summary": "Set one field on the record with this id",
        "parameters": [ {"$ref":"#/components/parameters/key"}, {"name":"id","in":"path","required":true,"schema":{"type":"string"}} ],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["key","value"],"properties":{"key":{"type":"string"},"value":{}}}}}},
        "responses": { "200": { "description": "Content updated successfully." }, "202": { "description": "Content updated; replica sync pending." }, "400": { "description": "Invalid data" }, "404": { "description": "Not found" }, "409": { "description": "Content changed concurrently, retry." } }
      },
      "delete": {
        "summary": "Delete every record matching field=value",
        "parameters": [ {"$ref":"#/components/parameters/key"}, {"name":"id","in":"path","required":true,"schema":{"type":"string"},"description":"field=value"} ],
        "responses": { "200": { "description": "Content deleted successfully." }, "202": { "description": "Content updated; replica sync pending." }, "400": { "description": "Invalid data" }, "404": { "description": "Not found" } }
      }
    },
    "/api/v1/content/{key}": {
      "post": {
        "summary": "Append records, or replace the whole document when clear is true",
        "parameters": [ {"$ref":"#/components/parameters/key"} ],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"clear":{"type":"boolean"},"data":{}}}}}},
        "responses": { "200": { "description": "Content updated successfully." }, "202": { "description": "Content updated; replica sync pending." }, "400": { "description": "Invalid data" }, "404": { "description": "Not found" } }
      }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
