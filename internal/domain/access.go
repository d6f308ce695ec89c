package domain

import "slices"

// Identity is the caller as resolved from proxy headers.
// An empty User means anonymous.
type Identity struct {
	User   string   `json:"user"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Groups []string `json:"groups"`
}

// Anonymous reports whether no user id was supplied.
func (id Identity) Anonymous() bool { return id.User == "" }

// InGroup reports whether the identity belongs to any of groups.
func (id Identity) InGroup(groups []string) bool {
	for _, g := range id.Groups {
		if g != "" && slices.Contains(groups, g) {
			return true
		}
	}
	return false
}

// Visibility is a service's allow-list. Both lists empty means public.
type Visibility struct {
	Groups []string
	Users  []string
}

func (v Visibility) IsPublic() bool {
	return len(v.Groups) == 0 && len(v.Users) == 0
}

// IsAuthorized is the access gate shared by status probes, plugin fetches
// and the services listing. It must run before any outbound call.
func IsAuthorized(id Identity, rule Visibility) bool {
	if rule.IsPublic() {
		return true
	}
	if id.Anonymous() {
		return false
	}
	if slices.Contains(rule.Users, id.User) {
		return true
	}
	return id.InGroup(rule.Groups)
}

// VisibleServices filters services down to what id may see, keeping order.
func VisibleServices(id Identity, services []Service) []Service {
	out := make([]Service, 0, len(services))
	for _, s := range services {
		if IsAuthorized(id, s.Visibility) {
			out = append(out, s)
		}
	}
	return out
}

// AlertVisibility restricts who may read a critical alert.
// Each configured list must be satisfied; an empty list is ignored.
type AlertVisibility struct {
	AllowedUsers  []string
	AllowedGroups []string
}

// IsAlertAuthorized applies AlertVisibility. The users list matches either
// the user id or the display name.
func IsAlertAuthorized(id Identity, rule AlertVisibility) bool {
	if len(rule.AllowedUsers) > 0 {
		if id.Anonymous() {
			return false
		}
		if !slices.Contains(rule.AllowedUsers, id.User) && !slices.Contains(rule.AllowedUsers, id.Name) {
			return false
		}
	}
	if len(rule.AllowedGroups) > 0 && !id.InGroup(rule.AllowedGroups) {
		return false
	}
	return true
}
