package contexthelpers

type contextKey string

const isAuthenticatedContextKey = contextKey("isAuthenticated")
const authenticatedUserIDContextKey = contextKey("authenticatedUserID")
const isAdminContextKey = contextKey("isAdmin")
const csrfTokenContextKey = contextKey("csrfToken")
