package api

// The REST surface, all under /api/v1 except the metrics path:
//
//	GET  /health                                    no auth
//	POST /auth/ws-ticket                            any role
//	POST /auth/token                                admin
//	GET  /ws?ticket=...                             WebSocket
//	GET  /appliances                                viewer
//	POST /appliances/refresh                        operator
//	GET  /appliances/{id}                           viewer
//	GET  /appliances/{id}/entities                  viewer
//	GET  /appliances/{id}/entities/{entity}         viewer
//	PUT  /appliances/{id}/entities/{entity}         operator
//	GET  /appliances/{id}/entities/{entity}/history viewer
//	GET  /appliances/{id}/history                   viewer
//	GET  /appliances/{id}/commands                  viewer
//	GET  /appliances/{id}/alerts                    viewer
//	POST /appliances/{id}/refresh                   operator
//	GET  /appliances/{id}/diagnostics               admin
//	GET  /system                                    admin
//
// Authentication is a Bearer access token or an X-API-Key header. Entities
// are addressed by key or unique id.
