// Package api serves cheatsignal over HTTP.
//
// All endpoints speak JSON. Errors are {"error": "..."}; validation errors
// also carry a "fields" map from field name to message.
//
// # Conversations
//
//	GET  /api/conversations               list, most recent activity first
//	GET  /api/conversations/{id}
//	POST /api/conversations/{id}/messages {content, request_id?}
//	PUT  /api/conversations/{id}/viewed   {viewed}
//	GET  /api/conversations/{id}/events   server-sent events
//
// A POST with a request_id already seen for the same conversation within
// the dedupe window returns the first result with "replayed": true.
//
// # Settings
//
//	GET /api/settings
//	PUT /api/settings/theme         {theme}
//	PUT /api/settings/notifications {enabled}
//
// # Directory
//
//	GET|POST /api/addresses, DELETE /api/addresses/{id}
//	GET|POST /api/skills (?type=, ?q=), DELETE /api/skills/{id}
//	GET|POST /api/hashtags (?q=), DELETE /api/hashtags/{id}
//	POST /api/hashtags/{id}/use
//
// # Links
//
//	GET /api/links/resolve?uri=cheatsignal://chat/1
package api
