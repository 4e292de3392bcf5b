// Package route is the navigation guard: a static table of destinations and a
// [Guard] that decides, per navigation, whether to allow it or where to redirect.
//
// # Decisions
//
//   - Public routes are always allowed.
//   - Protected routes need a usable session (verify, then refresh); otherwise the
//     user goes to login.
//   - Role-restricted routes also need the session's role in the allow-list;
//     otherwise the user goes to their role's home, or to login when the role has
//     none.
//
// Decisions are recomputed on every call. Nothing is cached between navigations.
//
// # What this package must NOT do
//
//   - Write credentials or log the user out.
//   - Render or perform the navigation itself.
package route
