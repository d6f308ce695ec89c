package domain

import (
	"maps"
	"net/url"
)

// Target is what the health prober is allowed to call for a status request.
type Target struct {
	Service  Service
	CheckURL string
	Headers  map[string]string
}

// ResolveTarget maps a caller supplied display URL to its probe target.
//
// The match is an exact string comparison against Service.URL, first match in
// document order wins. Anything else is rejected so the status endpoint cannot
// be used to fetch arbitrary URLs. On a configuration error the matched
// service is still returned so callers can apply the access gate first.
func ResolveTarget(rawURL string, services []Service) (Target, error) {
	const op = "resolve_target"

	for _, s := range services {
		if s.URL == "" || s.URL != rawURL {
			continue
		}

		addr := s.ProbeAddress()
		if !isProbeable(addr) {
			return Target{Service: s}, Errorf(KindConfiguration, op,
				"service %q has no checkable http(s) address", s.Name)
		}

		var headers map[string]string
		if len(s.Headers) > 0 {
			headers = maps.Clone(s.Headers)
		}
		return Target{Service: s, CheckURL: addr, Headers: headers}, nil
	}

	return Target{}, Wrap(KindValidation, op, ErrUnconfiguredURL, "Unconfigured Service URL")
}

func isProbeable(addr string) bool {
	if addr == "" {
		return false
	}
	u, err := url.Parse(addr)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
