package common

type contextKey string

// AuthInfoKey stores the validated JWT claims in the request context.
const AuthInfoKey = contextKey("authInfo")
