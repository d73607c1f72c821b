package portfolio

type PersonalInfo struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Title           string `json:"title"`
	Bio             string `json:"bio"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Location        string `json:"location"`
	LinkedInURL     string `json:"linkedin_url"`
	GitHubURL       string `json:"github_url"`
	WebsiteURL      string `json:"website_url"`
	ProfileImageURL string `json:"profile_image_url"`
	ResumeURL       string `json:"resume_url"`
}

// IsZero reports whether the upstream returned no personal info at all.
func (p PersonalInfo) IsZero() bool {
	return p.ID == 0 && p.Name == "" && p.Email == ""
}

type SkillCategory string

const (
	SkillCategoryTechnical SkillCategory = "technical"
	SkillCategorySoft      SkillCategory = "soft"
	SkillCategoryLanguage  SkillCategory = "language"
	SkillCategoryTool      SkillCategory = "tool"
)

type Skill struct {
	ID               int           `json:"id"`
	Name             string        `json:"name"`
	Category         SkillCategory `json:"category"`
	CategoryDisplay  string        `json:"category_display"`
	ProficiencyLevel int           `json:"proficiency_level"`
	Description      string        `json:"description"`
	IconURL          string        `json:"icon_url"`
	Order            int           `json:"order"`
	IsFeatured       bool          `json:"is_featured"`
}

type Experience struct {
	ID             int     `json:"id"`
	Company        string  `json:"company"`
	Position       string  `json:"position"`
	Description    string  `json:"description"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	IsCurrent      bool    `json:"is_current"`
	Location       string  `json:"location"`
	CompanyURL     string  `json:"company_url"`
	CompanyLogoURL string  `json:"company_logo_url"`
	Technologies   []Skill `json:"technologies"`
	Order          int     `json:"order"`
}

type ProjectStatus string

const (
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusPlanned    ProjectStatus = "planned"
)

type ProjectImage struct {
	ID       int    `json:"id"`
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
	Order    int    `json:"order"`
}

type Project struct {
	ID                  int            `json:"id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	DetailedDescription string         `json:"detailed_description"`
	Status              ProjectStatus  `json:"status"`
	StatusDisplay       string         `json:"status_display"`
	StartDate           string         `json:"start_date"`
	EndDate             string         `json:"end_date"`
	ProjectURL          string         `json:"project_url"`
	GitHubURL           string         `json:"github_url"`
	DemoURL             string         `json:"demo_url"`
	FeaturedImageURL    string         `json:"featured_image_url"`
	Technologies        []Skill        `json:"technologies"`
	Images              []ProjectImage `json:"images"`
	IsFeatured          bool           `json:"is_featured"`
	Order               int            `json:"order"`
}

type Summary struct {
	PersonalInfo     *PersonalInfo `json:"personal_info"`
	FeaturedProjects []Project     `json:"featured_projects"`
	FeaturedSkills   []Skill       `json:"featured_skills"`
	RecentExperience []Experience  `json:"recent_experience"`
}

// ContactSubmission is forwarded to the upstream as-is; the upstream owns
// validation.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ProjectFilter struct {
	Status   string
	Featured bool
}

type SkillFilter struct {
	Category string
	Featured bool
}
