// Package config loads plancraft's configuration.
//
// Configuration lives in a single directory, by default ~/.config/plancraft,
// overridable with the --config flag. The directory holds config.yaml:
//
//	api:
//	  baseURL: https://tests.example.com
//	  timeout: 30s
//	  auth:
//	    tokenURL: https://auth.example.com/oauth/token
//	    clientID: plancraft
//	    clientSecret: s3cret
//	    scopes: [plans:write]
//	logging:
//	  level: info
//	wizard:
//	  fetchOnOpen: true
//	notify:
//	  templates:
//	    success:
//	      title: "{{ .Title | upper }}"
//
// Defaults are applied first and the file is unmarshalled on top of them, so
// a missing file or a partial file is fine. Unknown keys are rejected. The
// PLANCRAFT_API_TOKEN environment variable, when set, replaces
// api.auth.token.
//
// Loaded values are checked with go-playground/validator; failures are
// reported as ValidationErrors keyed by the YAML path of the offending field.
package config
