package components

//go:generate go run portfolio/framework/cmd/templgen -path . -base ../../..

import (
	"fmt"

	"github.com/a-h/templ"

	"portfolio/internal/markdown"
	"portfolio/internal/portfolio"
	"portfolio/internal/web/appcore"
)

const (
	bootstrapCSS = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"
	bootstrapJS  = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"
	iconsCSS     = "https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css"
	googleFonts  = "https://fonts.googleapis.com/css2?family=Inter:wght@400;600;700&display=swap"
)

var navItems = []struct {
	path  string
	label string
}{
	{"/", "Home"},
	{"/projects", "Projects"},
	{"/experience", "Experience"},
	{"/skills", "Skills"},
	{"/contact", "Contact"},
}

type linkButton struct {
	url   string
	icon  string
	label string
	class string
}

func pageTitle(meta appcore.PageMeta) string {
	if meta.SiteName == "" || meta.Title == meta.SiteName {
		return meta.Title
	}
	return meta.Title + " | " + meta.SiteName
}

func highlightStyles() templ.Component {
	return templ.Raw("<style>" + string(markdown.ChromaCSS()) + "</style>")
}

// socialLinks skips profiles the owner left blank.
func socialLinks(info portfolio.PersonalInfo) []linkButton {
	return presentLinks([]linkButton{
		{url: info.GitHubURL, icon: "bi-github", label: "GitHub"},
		{url: info.LinkedInURL, icon: "bi-linkedin", label: "LinkedIn"},
		{url: info.WebsiteURL, icon: "bi-globe", label: "Website"},
		{url: info.ResumeURL, icon: "bi-file-earmark-text", label: "Resume"},
	})
}

func projectLinks(project portfolio.Project) []linkButton {
	return presentLinks([]linkButton{
		{url: project.DemoURL, label: "Live Demo", class: "btn btn-primary"},
		{url: project.ProjectURL, label: "Project Site", class: "btn btn-outline-primary"},
		{url: project.GitHubURL, label: "Source Code", class: "btn btn-outline-dark"},
	})
}

func presentLinks(links []linkButton) []linkButton {
	present := links[:0]
	for _, link := range links {
		if link.url != "" {
			present = append(present, link)
		}
	}
	return present
}

func progressWidth(level int) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("width: %d%%", appcore.ProficiencyPercent(level)))
}
