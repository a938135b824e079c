// Package authkit implements the credential and session authority for a
// multi-tenant content service: short-lived signed access tokens, long-lived
// revocable refresh tokens, and the role checks that gate protected routes.
//
// Token lifecycle:
//   - TokenService signs and verifies both token kinds. Access tokens are
//     stateless; their validity is proven purely by signature and expiry.
//     Refresh tokens are additionally tracked as session records, so a refresh
//     token is honored only while its record exists in the SessionStore.
//   - Auther orchestrates Register, Login, RefreshAccessToken, and Logout over
//     the PrincipalDirectory, the SessionStore, and the TokenService. Refresh
//     never rotates the refresh token itself; it mints a new access token only.
//
// Revocation:
//   - Logout deletes the session record and is idempotent. Expired refresh
//     tokens are cleaned up lazily the first time they are presented. Deleting
//     an account revokes every outstanding session via RevokeAllSessions.
//
// Authorization:
//   - middleware/jwtware authenticates bearer access tokens and, through
//     RequireRoles, re-reads the principal's role from the directory on every
//     request so role downgrades take effect within the access-token TTL.
package authkit
