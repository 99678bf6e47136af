// Package config handles configuration loading for rag-gateway.
//
// # Overview
//
// Configuration is layered:
//
//  1. Built-in defaults (see Default)
//  2. YAML file, with ${VAR_NAME} expansion
//  3. Process environment overrides (optionally seeded from a .env file)
//
// A missing config file is not an error for LoadOrDefault; the gateway then
// runs on defaults plus environment.
//
// # Configuration File
//
//	server:
//	  http_addr: "127.0.0.1:8000"
//
//	database:
//	  path: "/var/lib/rag-gateway/gateway.db"
//
//	auth:
//	  secret_key: "${SECRET_KEY}"
//	  algorithm: "HS256"                 # HS256, HS384, HS512
//	  access_token_expire_minutes: 60
//
//	web:
//	  cookie_secure: false
//	  session_max_age: "24h"             # empty = browser session cookie
//
//	backend:
//	  kind: "stub"                       # stub, http, openai
//	  timeout: "30s"
//	  http:
//	    url: "http://rag-service:9000/answer"
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//	    model: "gpt-4o-mini"
//
//	audit:
//	  file_path: "/var/log/rag-gateway/audit.jsonl"   # optional second sink
//	  sink_timeout: "5s"
//
//	tailscale:
//	  enabled: false
//	  hostname: "rag-gateway"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Environment Overrides
//
//	SECRET_KEY                    auth.secret_key (default "your_secret_key_here")
//	ALGORITHM                     auth.algorithm (default HS256)
//	ACCESS_TOKEN_EXPIRE_MINUTES   auth.access_token_expire_minutes (default 60)
//	RAG_HTTP_ADDR                 server.http_addr
//	RAG_DB_PATH                   database.path
//	RAG_BACKEND                   backend.kind
//	RAG_BACKEND_TIMEOUT           backend.timeout
//	RAG_BACKEND_URL               backend.http.url
//	OPENAI_API_KEY                backend.openai.api_key
//	OPENAI_BASE_URL               backend.openai.base_url
//	OPENAI_MODEL                  backend.openai.model
//	RAG_AUDIT_FILE                audit.file_path
//	RAG_COOKIE_SECURE             web.cookie_secure
//	RAG_TAILSCALE, TS_AUTHKEY     tailscale.enabled, tailscale.auth_key
//	RAG_LOG_LEVEL, RAG_LOG_FORMAT logging.level, logging.format
//
// # Validation
//
// Validate checks listen addresses, the database path, the signing algorithm
// and token TTL, and backend-specific required fields.
package config
