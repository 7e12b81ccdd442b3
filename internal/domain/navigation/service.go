package navigation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/child"
)

// Breadcrumb is one step of a navigation trail.
type Breadcrumb struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type Service struct {
	children *child.Service
	logger   zerolog.Logger
}

func NewService(children *child.Service, logger zerolog.Logger) *Service {
	return &Service{children: children, logger: logger}
}

// Breadcrumbs derives the trail for a client path. Id segments on child
// routes are replaced with the child's first name, looked up fresh on
// every call.
func (s *Service) Breadcrumbs(ctx context.Context, path string, userID uuid.UUID) []Breadcrumb {
	trail := []Breadcrumb{{Path: "/", Name: "Accueil"}}
	switch {
	case strings.HasPrefix(path, "/doctor/dashboard"):
		trail = []Breadcrumb{{Path: "/doctor/dashboard", Name: "Tableau de bord Docteur"}}
	case strings.HasPrefix(path, "/dashboard"):
		trail = []Breadcrumb{{Path: "/dashboard", Name: "Tableau de bord"}}
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	current := ""
	for i, segment := range segments {
		current += "/" + segment
		// Segments already consumed by the dashboard trail root.
		if strings.HasPrefix(trail[0].Path, current) {
			continue
		}

		if id, err := uuid.Parse(segment); err == nil {
			if name := s.dynamicName(ctx, path, id, userID); name != "" {
				trail = append(trail, Breadcrumb{Path: current, Name: name})
				continue
			}
			// Last segment with no friendly name: label it after its
			// parent route rather than showing a raw id.
			if i == len(segments)-1 {
				parentPath := "/" + strings.Join(segments[:i], "/")
				if label := labelFor(parentPath); label != "" && !hasName(trail, label) {
					trail = append(trail, Breadcrumb{Path: current, Name: label})
				}
			}
			continue
		}

		name := labelFor(current)
		if name == "" {
			name = strings.ReplaceAll(segment, "-", " ")
		}
		if name != "" && !hasPath(trail, current) {
			trail = append(trail, Breadcrumb{Path: current, Name: name})
		}
	}
	return trail
}

// dynamicName resolves an id segment to a child's first name on the
// routes that embed child ids.
func (s *Service) dynamicName(ctx context.Context, path string, id, userID uuid.UUID) string {
	if !strings.Contains(path, "/children/edit") && !strings.Contains(path, "/prediction/") {
		return ""
	}
	c, err := s.children.Get(ctx, id, userID)
	if err != nil {
		s.logger.Debug().Err(err).Str("child_id", id.String()).Msg("breadcrumb child lookup failed")
		return ""
	}
	return c.FirstName
}

func hasPath(trail []Breadcrumb, path string) bool {
	for _, b := range trail {
		if b.Path == path {
			return true
		}
	}
	return false
}

func hasName(trail []Breadcrumb, name string) bool {
	for _, b := range trail {
		if b.Name == name {
			return true
		}
	}
	return false
}
