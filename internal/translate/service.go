package translate

import (
	"fmt"
	"sort"

	"dubber/internal/services"
)

// Transit is the intermediate language used when no direct capability
// covers a target.
const Transit = "en"

// Capability translates text for exactly one installed language pair.
type Capability interface {
	Translate(text string) (string, error)
}

// Pair names an installed capability by its endpoint codes.
type Pair struct {
	From string
	To   string
}

// Service routes translation requests over the installed capability set.
type Service struct {
	source  string
	direct  map[string]Capability // source -> target
	transit map[string]Capability // en -> target, excluding the trivial en -> en
}

// NewService indexes the installed capabilities for the given source
// language. Pairs starting at the source language populate the direct
// map; pairs starting at English populate the transit map, except the
// trivial English-to-English entry. Other pairs are ignored.
func NewService(source string, capabilities map[Pair]Capability) *Service {
	s := &Service{
		source:  source,
		direct:  make(map[string]Capability),
		transit: make(map[string]Capability),
	}
	for pair, capability := range capabilities {
		if capability == nil {
			continue
		}
		switch pair.From {
		case source:
			s.direct[pair.To] = capability
		case Transit:
			if pair.To == Transit {
				continue
			}
			s.transit[pair.To] = capability
		}
	}
	return s
}

// Source returns the source language the service was built for.
func (s *Service) Source() string {
	return s.source
}

// Translate converts text to the target language. A direct capability is
// applied as-is; otherwise the text is first translated to English and
// the transit capability applied to the intermediate result.
func (s *Service) Translate(text, target string) (string, error) {
	if capability, ok := s.direct[target]; ok {
		out, err := capability.Translate(text)
		if err != nil {
			return "", fmt.Errorf("translate %s->%s: %w", s.source, target, err)
		}
		return out, nil
	}
	capability, ok := s.transit[target]
	if !ok {
		return "", services.Wrap(services.ErrUnsupportedLanguage, "translate", "", target, nil)
	}
	english, ok := s.direct[Transit]
	if !ok {
		return "", services.Wrap(services.ErrUnsupportedLanguage, "translate", "no route to english for transit", target, nil)
	}
	intermediate, err := english.Translate(text)
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", s.source, Transit, err)
	}
	out, err := capability.Translate(intermediate)
	if err != nil {
		return "", fmt.Errorf("translate %s->%s via %s: %w", s.source, target, Transit, err)
	}
	return out, nil
}

// AvailableCodes returns the sorted union of every target reachable
// directly or through transit.
func (s *Service) AvailableCodes() []string {
	seen := make(map[string]struct{}, len(s.direct)+len(s.transit))
	for code := range s.direct {
		seen[code] = struct{}{}
	}
	for code := range s.transit {
		seen[code] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
