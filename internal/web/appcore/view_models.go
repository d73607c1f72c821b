package appcore

import (
	"html/template"

	"portfolio/internal/portfolio"
)

type PageMeta struct {
	Title        string
	Description  string
	NavPath      string
	SiteName     string
	AssetsPrefix string
}

func (m PageMeta) LayoutMeta() PageMeta {
	return m
}

// LayoutView is satisfied by every page view through its embedded PageMeta.
type LayoutView interface {
	LayoutMeta() PageMeta
}

type ProjectCard struct {
	Project portfolio.Project
	URL     string
	Excerpt string
	Period  string
}

type ExperienceEntry struct {
	Experience      portfolio.Experience
	DescriptionHTML template.HTML
	Period          string
}

type SkillGroup struct {
	Category portfolio.SkillCategory
	Label    string
	Skills   []portfolio.Skill
}

type Option struct {
	Value  string
	Label  string
	Active bool
	URL    string
}

type HomePageView struct {
	PageMeta
	PersonalInfo     portfolio.PersonalInfo
	HasPersonalInfo  bool
	BioHTML          template.HTML
	FeaturedProjects []ProjectCard
	FeaturedSkills   []portfolio.Skill
	RecentExperience []ExperienceEntry
}

type ProjectsPageView struct {
	PageMeta
	Filter        portfolio.ProjectFilter
	StatusOptions []Option
	Projects      []ProjectCard
}

type ProjectPageView struct {
	PageMeta
	Project    portfolio.Project
	DetailHTML template.HTML
	Period     string
}

type ExperiencePageView struct {
	PageMeta
	Entries []ExperienceEntry
}

type SkillsPageView struct {
	PageMeta
	Filter          portfolio.SkillFilter
	CategoryOptions []Option
	Groups          []SkillGroup
}

type ContactPageView struct {
	PageMeta
	PersonalInfo    portfolio.PersonalInfo
	HasPersonalInfo bool
}

type ContactSuccessView struct {
	PageMeta
	Message string
}

type ErrorPageView struct {
	PageMeta
	Message string
	// Detail is only populated in development.
	Detail string
	Stack  string
}

type NotFoundView struct {
	PageMeta
	Message string
	Path    string
}
