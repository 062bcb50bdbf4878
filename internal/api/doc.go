// Package api provides hubibot's optional admin HTTP API.
//
// Routes live under /api/v1:
//
//	GET  /health                  no token
//	GET  /groups                  DEVICE
//	GET  /groups/{name}/devices   DEVICE
//	GET  /resolve?names=&groups=  DEVICE
//	POST /refresh                 ADMIN
//	GET  /ws                      ADMIN, websocket feed of command events
//
// Tokens are HS256 JWTs signed with api.jwt_secret carrying a "level"
// claim; "hubibot token <level>" mints one. A request whose token is
// missing, invalid or below the route's level gets the same 404 as an
// unknown route.
//
// WebSocket clients send {"type":"subscribe","payload":{"channels":["command.executed"]}}
// to start receiving events.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
