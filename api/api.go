package api

import _ "embed"

// OpenAPISpec отдаётся по /swagger/openapi.json.
//
//go:embed openapi.json
var OpenAPISpec []byte
