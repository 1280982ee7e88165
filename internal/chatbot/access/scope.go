// internal/chatbot/access/scope.go
package access

import (
	"strings"

	"vahan-chatbot/internal/models"
)

// narrowFunc resolves the scope for one role.
type narrowFunc func(caller models.Caller, f models.Filters) models.AccessScope

var narrowers = map[models.Role]narrowFunc{
	models.RoleAdmin:           adminScope,
	models.RoleStateOfficer:    stateOfficerScope,
	models.RoleDistrictOfficer: districtOfficerScope,
	models.RoleRTOClerk:        rtoClerkScope,
}

var denied = models.AccessScope{Allowed: false}

// Resolve combines the caller's jurisdiction with the requested filters. The
// returned scope never exceeds the caller's own jurisdiction; any request naming a
// state or district outside it is denied. Unknown roles, and non-admin callers
// with no jurisdiction of their own, are always denied.
func Resolve(caller models.Caller, f models.Filters) models.AccessScope {
	narrow, ok := narrowers[caller.Role]
	if !ok {
		return denied
	}
	return narrow(caller, f)
}

func adminScope(_ models.Caller, f models.Filters) models.AccessScope {
	return models.AccessScope{
		Allowed:  true,
		State:    f.State,
		District: f.District,
	}
}

// state officers keep the requested district; only the state is pinned.
func stateOfficerScope(caller models.Caller, f models.Filters) models.AccessScope {
	if caller.State == "" || mismatch(f.State, caller.State) {
		return denied
	}
	return models.AccessScope{
		Allowed:  true,
		State:    caller.State,
		District: f.District,
	}
}

func districtOfficerScope(caller models.Caller, f models.Filters) models.AccessScope {
	if caller.District == "" {
		return denied
	}
	return pinnedScope(caller, f)
}

// clerks are pinned to their office; a clerk record may carry no district.
func rtoClerkScope(caller models.Caller, f models.Filters) models.AccessScope {
	scope := pinnedScope(caller, f)
	if !scope.Allowed {
		return scope
	}
	scope.RTOOffice = caller.RTOOffice
	return scope
}

// pinnedScope fixes state and district to the caller's own. A caller without
// a state has no jurisdiction to pin and is denied.
func pinnedScope(caller models.Caller, f models.Filters) models.AccessScope {
	if caller.State == "" || mismatch(f.State, caller.State) || mismatch(f.District, caller.District) {
		return denied
	}
	return models.AccessScope{
		Allowed:  true,
		State:    caller.State,
		District: caller.District,
	}
}

// mismatch reports whether a requested value names somewhere other than own.
func mismatch(requested, own string) bool {
	return requested != "" && !strings.EqualFold(requested, own)
}
