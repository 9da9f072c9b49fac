package auth

// Known OAuth scopes used by the backend services.
const (
	ScopeShiftsRead     = "shifts:read"
	ScopeShiftsWrite    = "shifts:write"
	ScopeShiftsValidate = "shifts:validate"
)
