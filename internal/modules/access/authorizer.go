package access

// StaticAuthorizer grants actions to bearer tokens configured at boot.
// Operator tokens may configure and trigger; admin tokens may do everything.
type StaticAuthorizer struct {
	grants map[string]map[string]bool
}

// NewStaticAuthorizer creates an authorizer from token lists.
func NewStaticAuthorizer(operatorTokens, adminTokens []string) *StaticAuthorizer {
	grants := make(map[string]map[string]bool)

	for _, token := range operatorTokens {
		grants[token] = map[string]bool{
			ActionConfigure: true,
			ActionTrigger:   true,
		}
	}
	for _, token := range adminTokens {
		grants[token] = map[string]bool{
			ActionConfigure: true,
			ActionTrigger:   true,
			ActionAdmin:     true,
		}
	}

	return &StaticAuthorizer{grants: grants}
}

// IsAuthorized reports whether the caller token carries the action grant.
func (a *StaticAuthorizer) IsAuthorized(caller, action string) bool {
	if caller == "" {
		return false
	}
	return a.grants[caller][action]
}
