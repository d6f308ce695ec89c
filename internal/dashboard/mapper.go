package dashboard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/linkus/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report yaml keys instead of Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Mapper converts a parsed Document into an immutable domain.Dashboard.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// Map validates doc and builds the snapshot. source is recorded for /infra.
func (m *Mapper) Map(doc Document, source string) (*domain.Dashboard, error) {
	if err := getValidator().Struct(doc); err != nil {
		return nil, translate(err)
	}
	if err := checkSemantics(doc); err != nil {
		return nil, err
	}

	dash := &domain.Dashboard{
		App: domain.AppSettings{
			Title: doc.App.Title,
			Theme: doc.App.Theme,
		},
		Services:   make([]domain.Service, 0, len(doc.Services)),
		Categories: make([]domain.Category, 0, len(doc.Categories)),
		Alerts:     make([]domain.CriticalAlert, 0, len(doc.CriticalAlerts)),
		LoadedAt:   m.now(),
		Source:     source,
	}

	for _, e := range doc.Services {
		dash.Services = append(dash.Services, domain.Service{
			Name:         e.Name,
			Type:         domain.ServiceType(e.Type),
			Icon:         e.Icon,
			Category:     e.Category,
			Description:  e.Description,
			URL:          e.URL,
			CheckURL:     e.CheckURL,
			Headers:      e.Headers,
			Plugin:       e.Plugin,
			Config:       e.Config,
			PingInterval: e.PingInterval,
			Visibility: domain.Visibility{
				Groups: cleanList(e.Groups),
				Users:  cleanList(e.User),
			},
		})
	}

	for _, c := range doc.Categories {
		dash.Categories = append(dash.Categories, domain.Category{ID: c.ID, Name: c.Name, Icon: c.Icon})
	}

	for _, a := range doc.CriticalAlerts {
		alert := domain.CriticalAlert{
			Name:        a.Name,
			Type:        domain.AlertType(a.Type),
			Target:      a.Target,
			Interval:    a.Interval,
			JSONPath:    a.JSONPath,
			TextPresent: a.TextPresent,
			TextAbsent:  a.TextAbsent,
			Visibility: domain.AlertVisibility{
				AllowedUsers:  cleanList(a.AllowedUsers),
				AllowedGroups: cleanList(a.AllowedGroups),
			},
		}
		if a.ExpectedValue != nil {
			alert.ExpectedValue = domain.Stringify(a.ExpectedValue)
		}
		dash.Alerts = append(dash.Alerts, alert)
	}

	if user := strings.TrimSpace(doc.RemoteUser); user != "" {
		name := strings.TrimSpace(doc.RemoteName)
		if name == "" {
			name = user
		}
		dash.DevIdentity = &domain.Identity{
			User:   user,
			Name:   name,
			Email:  strings.TrimSpace(doc.RemoteEmail),
			Groups: cleanList(strings.Split(doc.RemoteGroups, ",")),
		}
	}

	return dash, nil
}

// checkSemantics covers rules that span several fields or entries.
func checkSemantics(doc Document) error {
	var errs []error

	names := make(map[string]int, len(doc.Services))
	for i, s := range doc.Services {
		if prev, dup := names[s.Name]; dup {
			errs = append(errs, fmt.Errorf("services[%d].name: duplicate service %q (first at services[%d])", i, s.Name, prev))
		} else {
			names[s.Name] = i
		}
		if s.Type == string(domain.ServiceHTTPCheck) && s.URL == "" && s.CheckURL == "" {
			errs = append(errs, fmt.Errorf("services[%d]: http_check service %q needs url or check_url", i, s.Name))
		}
	}

	alerts := make(map[string]struct{}, len(doc.CriticalAlerts))
	for i, a := range doc.CriticalAlerts {
		if _, dup := alerts[a.Name]; dup {
			errs = append(errs, fmt.Errorf("critical_alerts[%d].name: duplicate alert %q", i, a.Name))
		}
		alerts[a.Name] = struct{}{}
		if a.Type == string(domain.AlertWebText) && a.TextPresent == "" && a.TextAbsent == "" {
			errs = append(errs, fmt.Errorf("critical_alerts[%d]: web_text alert %q needs text_present or text_absent", i, a.Name))
		}
	}

	return errors.Join(errs...)
}

// translate turns validator output into one readable error per field.
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Document.")
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Errorf("%s: is required", field))
		case "required_if":
			out = append(out, fmt.Errorf("%s: is required when %s", field, strings.Replace(fe.Param(), " ", " is ", 1)))
		case "oneof":
			out = append(out, fmt.Errorf("%s: must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		case "url":
			out = append(out, fmt.Errorf("%s: must be an absolute URL, got %q", field, fe.Value()))
		case "gte":
			out = append(out, fmt.Errorf("%s: must be >= %s", field, fe.Param()))
		default:
			out = append(out, fmt.Errorf("%s: failed %s validation", field, fe.Tag()))
		}
	}
	return errors.Join(out...)
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
