package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// UserIDKey holds the authenticated user id (uint) on gin and request contexts.
const UserIDKey = contextKey("user_id")

// TokenClaimsKey holds the parsed JWT claims on the gin context.
const TokenClaimsKey = contextKey("token_claims")
