package naming

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

// Rules configures a Resolver. Blacklist and whitelist patterns match at the
// start of the path; rename patterns are removed wherever they match.
type Rules struct {
	Blacklist []string
	Whitelist []string
	Rename    []string
}

// DefaultRules returns the built-in filtering and renaming rules.
func DefaultRules() Rules {
	return Rules{
		Blacklist: []string{
			`^fCMiscellaneous.+`,
			`fcOptisenseLoadWeight.*`,
			`applianceCareAndMaintenance.*`,
			`applianceMainBoardSwVersion`,
			`coolingValveState`,
			`networkInterface`,
			`temperatureRepresentation`,
		},
		Whitelist: []string{
			`applianceCareAndMaintenance0/.+`,
			`networkInterface/linkQualityIndicator`,
		},
		Rename: []string{
			`^userSelections/[A-Za-z0-9]+_`,
			`^fCMiscellaneousState/[A-Za-z0-9]+_`,
		},
	}
}

// Resolver applies compiled naming rules. It is immutable and safe for
// concurrent use.
type Resolver struct {
	blacklist []*regexp.Regexp
	whitelist []*regexp.Regexp
	rename    []*regexp.Regexp
}

// New compiles rules into a Resolver.
func New(rules Rules) (*Resolver, error) {
	var (
		r   Resolver
		err error
	)
	if r.blacklist, err = compileAnchored(rules.Blacklist); err != nil {
		return nil, fmt.Errorf("compiling blacklist: %w", err)
	}
	if r.whitelist, err = compileAnchored(rules.Whitelist); err != nil {
		return nil, fmt.Errorf("compiling whitelist: %w", err)
	}
	if r.rename, err = compile(rules.Rename, false); err != nil {
		return nil, fmt.Errorf("compiling rename rules: %w", err)
	}
	return &r, nil
}

// MustDefault returns a Resolver for DefaultRules. It panics only if the
// built-in patterns fail to compile.
func MustDefault() *Resolver {
	r, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return r
}

// compileAnchored compiles patterns as prefix matches.
func compileAnchored(patterns []string) ([]*regexp.Regexp, error) {
	return compile(patterns, true)
}

func compile(patterns []string, anchor bool) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		expr := p
		if anchor && !strings.HasPrefix(expr, "^") {
			expr = "^(?:" + expr + ")"
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (r *Resolver) stripRenames(path string) string {
	for _, re := range r.rename {
		path = re.ReplaceAllString(path, "")
	}
	return path
}

// EntityName returns the attribute name of path after rename rules.
//
//	"fCMiscellaneousState/EWX1493A_detergentExtradosage" -> "detergentExtradosage"
func (r *Resolver) EntityName(path string) string {
	return capability.Attribute(r.stripRenames(path))
}

// SensorName returns the human-readable words for path, lower-cased and
// space-joined.
//
// Text without upper-case letters is taken as already segmented and only
// has its separators normalised, so SensorName(SensorName(p)) equals
// SensorName(p) even when a word mixes letters and digits ("ewx1493a").
func (r *Resolver) SensorName(path string) string {
	name := r.stripRenames(path)
	if name == "" {
		return ""
	}
	name = strings.NewReplacer("_", " ", "/", " ").Replace(name)
	if !strings.ContainsFunc(name, unicode.IsUpper) {
		return strings.Join(strings.Fields(name), " ")
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return strings.ToLower(strings.Join(segment(runes), " "))
}

func isUpperOrDigit(c rune) bool {
	return unicode.IsUpper(c) || unicode.IsDigit(c)
}

func isAcronym(group []rune) bool {
	for _, c := range group {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return len(group) > 0
}

// segment splits camelCase text into words. Runs of upper-case letters and
// digits stay together; a lower-to-upper transition starts a new word.
func segment(s []rune) []string {
	var (
		words []string
		group []rune
	)
	flush := func() {
		if isAcronym(group) {
			words = append(words, string(group))
		} else {
			words = append(words, strings.ToLower(string(group)))
		}
	}

	for i, c := range s {
		if len(group) == 0 {
			group = append(group, c)
			continue
		}
		if c == ' ' {
			words = append(words, string(group))
			group = group[:0]
			continue
		}

		prev := s[i-1]
		last := i == len(s)-1
		switch {
		case isUpperOrDigit(c) && isUpperOrDigit(prev) && (last || isUpperOrDigit(s[i+1])):
			group = append(group, c)
		case isUpperOrDigit(c) && unicode.IsLower(prev):
			flush()
			group = []rune{c}
		default:
			group = append(group, c)
		}
	}
	if len(group) > 0 {
		flush()
	}
	return words
}

// Keep reports whether a capability path passes the blacklist, allowing
// whitelisted paths through.
func (r *Resolver) Keep(path string) bool {
	for _, re := range r.blacklist {
		if !re.MatchString(path) {
			continue
		}
		for _, allow := range r.whitelist {
			if allow.MatchString(path) {
				return true
			}
		}
		return false
	}
	return true
}

// Sources lists the capability paths that should be turned into entities:
// every kept top-level key, plus "key/sub" for each nested descriptor under
// a kept key. The result is de-duplicated and sorted.
//
// A nil registry yields nil, signalling that capabilities are unknown.
func (r *Resolver) Sources(reg capability.Registry) []string {
	if reg == nil {
		return nil
	}

	set := make(map[string]struct{}, len(reg))
	for key, value := range reg {
		if !r.Keep(key) {
			continue
		}
		set[key] = struct{}{}

		m, ok := value.(map[string]any)
		if !ok || capability.IsDescriptorMap(m) {
			continue
		}
		for sub, subValue := range m {
			sm, ok := subValue.(map[string]any)
			if ok && capability.IsDescriptorMap(sm) {
				set[key+"/"+sub] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(set))
}
