// Package api carries the machine-readable description of the HTTP
// surface, embedded so the server can serve it from any working
// directory.
package api

import _ "embed"

// OpenAPI is the OpenAPI 3 document for the service.
//
//go:embed openapi/openapi.yaml
var OpenAPI []byte
