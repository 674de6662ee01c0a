/*
Package docserver is a small HTTP/1.1 server that serves static files and one
form endpoint from a document root over raw TCP connections.

Every connection carries exactly one request and is closed after the
response. Connections are served synchronously by a bounded pool of
workers sized by configuration.

Quick Start

	# config.ini
	port=8080
	maxThreads=16
	root=~/www
	defaultPage=index.html

	$ docserver -config config.ini

Behavior

  - GET serves a file with Content-Length, or with chunked framing when the
    client sends the non-standard header "chunked: yes"
  - HEAD sends the headers GET would send, without a body
  - POST /params_info.html decodes a urlencoded form and reports the
    "message" and "loveCN" fields
  - TRACE echoes the request head as message/http
  - any other method gets 501 Not Implemented
  - targets that escape the document root get 400 before any file access

Modules

  - app: Application lifecycle and signal handling
  - config: Configuration loading (properties/JSON file, env, flags)
  - core: Listener engine and the per-connection request handler
  - core/http: Request parsing, response framing, form decoding
  - core/static: Document-root path resolution and MIME types
  - core/pools: Worker and byte buffer pools, GC tuning
  - core/middleware: Per-connection middleware (recovery, deadlines, logging)
  - core/observability: Request metrics
*/
package docserver
