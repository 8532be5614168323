// Package api holds the OpenAPI description of the HTTP interface
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document served at /api/v1/openapi.yaml
//
//go:embed openapi.yaml
var OpenAPISpec []byte
