// Package http provides HTTP handlers and middleware for the silab API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","user"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from
//     the Authorization header or session cookie. Returns 204 No Content and
//     clears the cookie.
//   - POST /register: self-service student registration restricted to the campus
//     email domain. No session required.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: account management
//     endpoints exchanging the `userDTO` payload defined in user_handler.go.
//     Listing and creation require admin privileges; a principal may always read
//     its own account.
//   - GET /bookings, POST /bookings, GET /bookings/{id}, PATCH /bookings/{id}:
//     ledger endpoints exchanging the `bookingDTO` payload defined in
//     booking_handler.go. PATCH applies a status transition ("disetujui",
//     "ditolak", "dibatalkan", "selesai") subject to role gates.
//   - GET /dashboard: per-status counters for the ledger.
//   - GET /calendar?week=YYYY-MM-DD: the weekly room-by-day availability grid
//     projected in WIB.
//   - GET /rooms, POST /rooms, GET/PUT/DELETE /rooms/{id}: room catalog
//     endpoints. Listing is available to any authenticated principal while
//     mutations require admin privileges.
//   - GET /equipment, POST /equipment, GET/PUT/DELETE /equipment/{id}: inventory
//     endpoints following the same access rules as rooms.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
