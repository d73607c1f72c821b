package appcore

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"portfolio/internal/portfolio"
)

const (
	upstreamDateLayout = "2006-01-02"
	displayDateLayout  = "Jan 2006"
)

var projectStatusLabels = []struct {
	status portfolio.ProjectStatus
	label  string
}{
	{portfolio.ProjectStatusCompleted, "Completed"},
	{portfolio.ProjectStatusInProgress, "In Progress"},
	{portfolio.ProjectStatusPlanned, "Planned"},
}

var skillCategoryLabels = []struct {
	category portfolio.SkillCategory
	label    string
}{
	{portfolio.SkillCategoryTechnical, "Technical Skills"},
	{portfolio.SkillCategoryTool, "Tools & Technologies"},
	{portfolio.SkillCategoryLanguage, "Languages"},
	{portfolio.SkillCategorySoft, "Soft Skills"},
}

func ParseProjectFilter(r *http.Request) portfolio.ProjectFilter {
	q := r.URL.Query()
	return portfolio.ProjectFilter{
		Status:   strings.TrimSpace(q.Get("status")),
		Featured: parseBool(q.Get("featured")),
	}
}

func ParseSkillFilter(r *http.Request) portfolio.SkillFilter {
	q := r.URL.Query()
	return portfolio.SkillFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Featured: parseBool(q.Get("featured")),
	}
}

func ProjectURL(id int) string {
	return "/projects/" + strconv.Itoa(id)
}

func BuildProjectsURL(filter portfolio.ProjectFilter) string {
	q := make(url.Values)
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Featured {
		q.Set("featured", "true")
	}
	return withQuery("/projects", q)
}

func BuildSkillsURL(filter portfolio.SkillFilter) string {
	q := make(url.Values)
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Featured {
		q.Set("featured", "true")
	}
	return withQuery("/skills", q)
}

func withQuery(path string, q url.Values) string {
	encoded := q.Encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}

func projectStatusOptions(filter portfolio.ProjectFilter) []Option {
	options := []Option{{
		Label:  "All",
		Active: filter.Status == "",
		URL:    BuildProjectsURL(portfolio.ProjectFilter{Featured: filter.Featured}),
	}}
	for _, entry := range projectStatusLabels {
		options = append(options, Option{
			Value:  string(entry.status),
			Label:  entry.label,
			Active: filter.Status == string(entry.status),
			URL:    BuildProjectsURL(portfolio.ProjectFilter{Status: string(entry.status), Featured: filter.Featured}),
		})
	}
	return options
}

func skillCategoryOptions(filter portfolio.SkillFilter) []Option {
	options := []Option{{
		Label:  "All",
		Active: filter.Category == "",
		URL:    BuildSkillsURL(portfolio.SkillFilter{Featured: filter.Featured}),
	}}
	for _, entry := range skillCategoryLabels {
		options = append(options, Option{
			Value:  string(entry.category),
			Label:  entry.label,
			Active: filter.Category == string(entry.category),
			URL:    BuildSkillsURL(portfolio.SkillFilter{Category: string(entry.category), Featured: filter.Featured}),
		})
	}
	return options
}

// GroupSkills buckets skills by category in a fixed category order, keeping
// upstream order inside each bucket. Unknown categories follow, sorted by name.
func GroupSkills(skills []portfolio.Skill) []SkillGroup {
	buckets := make(map[portfolio.SkillCategory][]portfolio.Skill)
	labels := make(map[portfolio.SkillCategory]string)
	for _, skill := range skills {
		buckets[skill.Category] = append(buckets[skill.Category], skill)
		if _, ok := labels[skill.Category]; !ok && skill.CategoryDisplay != "" {
			labels[skill.Category] = skill.CategoryDisplay
		}
	}

	groups := make([]SkillGroup, 0, len(buckets))
	for _, entry := range skillCategoryLabels {
		if items, ok := buckets[entry.category]; ok {
			groups = append(groups, SkillGroup{Category: entry.category, Label: entry.label, Skills: items})
			delete(buckets, entry.category)
		}
	}

	rest := make([]portfolio.SkillCategory, 0, len(buckets))
	for category := range buckets {
		rest = append(rest, category)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, category := range rest {
		label := labels[category]
		if label == "" {
			label = categoryFallbackLabel(category)
		}
		groups = append(groups, SkillGroup{Category: category, Label: label, Skills: buckets[category]})
	}
	return groups
}

func categoryFallbackLabel(category portfolio.SkillCategory) string {
	value := strings.TrimSpace(string(category))
	if value == "" {
		return "Other"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

// FormatPeriod renders "Jan 2022 - Mar 2024". Unparseable dates are shown as
// given.
func FormatPeriod(start string, end string, current bool) string {
	from := formatDate(start)
	to := formatDate(end)
	if current {
		to = "Present"
	}

	switch {
	case from == "" && to == "":
		return ""
	case from == "":
		return to
	case to == "":
		return from
	default:
		return from + " - " + to
	}
}

func formatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(upstreamDateLayout, value)
	if err != nil {
		return value
	}
	return parsed.Format(displayDateLayout)
}

func ProficiencyPercent(level int) int {
	switch {
	case level <= 0:
		return 0
	case level >= 5:
		return 100
	default:
		return level * 20
	}
}

func StatusBadgeClass(status portfolio.ProjectStatus) string {
	switch status {
	case portfolio.ProjectStatusCompleted:
		return "badge bg-success"
	case portfolio.ProjectStatusInProgress:
		return "badge bg-warning text-dark"
	case portfolio.ProjectStatusPlanned:
		return "badge bg-secondary"
	default:
		return "badge bg-light text-dark"
	}
}

func StatusLabel(project portfolio.Project) string {
	if project.StatusDisplay != "" {
		return project.StatusDisplay
	}
	for _, entry := range projectStatusLabels {
		if entry.status == project.Status {
			return entry.label
		}
	}
	return string(project.Status)
}

func NavLinkClass(active bool) string {
	if active {
		return "nav-link active"
	}
	return "nav-link"
}

func FilterLinkClass(active bool) string {
	if active {
		return "btn btn-sm btn-primary"
	}
	return "btn btn-sm btn-outline-primary"
}

func parseBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}
