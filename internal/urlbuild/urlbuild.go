// Package urlbuild reconstructs a bookmaker's match URL from a
// per-source template when the ingested record didn't already carry
// one, and slugifies tournament names for use inside those templates.
package urlbuild

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var nonWordOrSpaceHyphen = regexp.MustCompile(`[^\w\s-]`)
var spaceOrUnderscoreRun = regexp.MustCompile(`[\s_]+`)
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// SlugifyRules configures Slugify the way a per-template
// "slugify_fields" entry does.
type SlugifyRules struct {
	RemoveDigits     bool
	SpaceReplacement string // defaults to "-"
}

// Slugify turns text into a URL-friendly slug: optional digit removal,
// lowercasing, stripping non-word/space/hyphen characters, then
// collapsing whitespace/underscore runs into SpaceReplacement.
func Slugify(text string, rules SlugifyRules) string {
	if rules.RemoveDigits {
		var b strings.Builder
		for _, r := range text {
			if r < '0' || r > '9' {
				b.WriteRune(r)
			}
		}
		text = b.String()
	}
	text = strings.ToLower(text)
	text = nonWordOrSpaceHyphen.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	replacement := rules.SpaceReplacement
	if replacement == "" {
		replacement = "-"
	}
	return spaceOrUnderscoreRun.ReplaceAllString(text, replacement)
}

// Template is one source's URL_TEMPLATES entry.
type Template struct {
	Template      string
	Mappings      map[string]map[string]string // e.g. "mode" -> {"prematch": "pre"}
	SlugifyFields map[string]SlugifyRules       // field name -> rules
}

// Registry is the case-insensitive URL_TEMPLATES lookup, plus the
// sport/mode names substituted into every template.
type Registry struct {
	templates  map[string]Template
	sportName  string
	modeName   string
	warnOnce   sync.Map // source name -> struct{}, so a missing template warns once
	onWarn     func(format string, args ...any)
}

func NewRegistry(templates map[string]Template, sportName, modeName string, onWarn func(string, ...any)) *Registry {
	lower := make(map[string]Template, len(templates))
	for k, v := range templates {
		lower[strings.ToLower(k)] = v
	}
	if onWarn == nil {
		onWarn = func(string, ...any) {}
	}
	return &Registry{templates: lower, sportName: sportName, modeName: modeName, onWarn: onWarn}
}

// MatchData is the minimal set of fields Build needs from a record.
type MatchData struct {
	MatchURL       string
	Country        string
	TournamentID   string
	TournamentName string
	MatchID        string
}

// Build returns matchData.MatchURL directly if present, else attempts
// to render the source's template; returns "" (after at most one
// logged warning per missing source) if it cannot.
func (r *Registry) Build(source string, data MatchData) string {
	if data.MatchURL != "" {
		return data.MatchURL
	}

	tpl, ok := r.templates[strings.ToLower(source)]
	if !ok {
		if _, warned := r.warnOnce.LoadOrStore(source, struct{}{}); !warned {
			r.onWarn("no URL template found for source %q", source)
		}
		return ""
	}
	if tpl.Template == "" {
		r.onWarn("template config for %q is missing the template string", source)
		return ""
	}

	mode := r.modeName
	if m, ok := tpl.Mappings["mode"]; ok {
		if mapped, ok := m[r.modeName]; ok {
			mode = mapped
		}
	}
	sport := r.sportName
	if m, ok := tpl.Mappings["sport"]; ok {
		if mapped, ok := m[r.sportName]; ok {
			sport = mapped
		}
	}

	tournamentName := data.TournamentName
	if rules, ok := tpl.SlugifyFields["tournament_name"]; ok {
		tournamentName = Slugify(tournamentName, rules)
	} else if tournamentName != "" {
		tournamentName = url.QueryEscape(tournamentName)
	}

	fields := map[string]string{
		"mode":            mode,
		"sport":           sport,
		"country_name":    data.Country,
		"tournament_id":   data.TournamentID,
		"match_id":        data.MatchID,
		"tournament_name": tournamentName,
	}

	required := placeholderPattern.FindAllStringSubmatch(tpl.Template, -1)
	for _, m := range required {
		key := m[1]
		if v, ok := fields[key]; !ok || v == "" {
			return ""
		}
	}

	out := tpl.Template
	for k, v := range fields {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// IntOrString converts id to an int when possible, else returns it as
// a string — the Go analogue of the "try int(), fall back to str()" idiom.
func IntOrString(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}
