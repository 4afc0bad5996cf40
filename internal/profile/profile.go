// Package profile holds the stored applicant profile the matchers draw
// values from. The record is read-only to the engine; loading and editing
// belong to the host.
package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Personal groups identity and address attributes.
type Personal struct {
	FirstName         string `mapstructure:"first-name" json:"first_name"`
	LastName          string `mapstructure:"last-name" json:"last_name"`
	PreferredName     string `mapstructure:"preferred-name" json:"preferred_name,omitempty"`
	AddressLine1      string `mapstructure:"address-line1" json:"address_line1,omitempty"`
	AddressLine2      string `mapstructure:"address-line2" json:"address_line2,omitempty"`
	City              string `mapstructure:"city" json:"city,omitempty"`
	State             string `mapstructure:"state" json:"state,omitempty"`
	PostalCode        string `mapstructure:"postal-code" json:"postal_code,omitempty"`
	Country           string `mapstructure:"country" json:"country,omitempty"`
	WorkAuthorization string `mapstructure:"work-authorization" json:"work_authorization,omitempty"`
	NeedsSponsorship  bool   `mapstructure:"needs-sponsorship" json:"needs_sponsorship,omitempty"`
}

// Contact groups reachability and profile links.
type Contact struct {
	Email        string `mapstructure:"email" json:"email"`
	Phone        string `mapstructure:"phone" json:"phone"`
	LinkedinURL  string `mapstructure:"linkedin-url" json:"linkedin_url,omitempty"`
	GithubURL    string `mapstructure:"github-url" json:"github_url,omitempty"`
	PortfolioURL string `mapstructure:"portfolio-url" json:"portfolio_url,omitempty"`
	Website      string `mapstructure:"website" json:"website,omitempty"`
}

// Professional groups current-role and compensation attributes.
type Professional struct {
	CurrentTitle    string `mapstructure:"current-title" json:"current_title,omitempty"`
	CurrentCompany  string `mapstructure:"current-company" json:"current_company,omitempty"`
	YearsExperience int    `mapstructure:"years-experience" json:"years_experience,omitempty"`
	DesiredSalary   string `mapstructure:"desired-salary" json:"desired_salary,omitempty"`
	CurrentSalary   string `mapstructure:"current-salary" json:"current_salary,omitempty"`
	NoticePeriod    string `mapstructure:"notice-period" json:"notice_period,omitempty"`
	Summary         string `mapstructure:"summary" json:"summary,omitempty"`
}

// Education groups the most recent degree.
type Education struct {
	Degree         string `mapstructure:"degree" json:"degree,omitempty"`
	School         string `mapstructure:"school" json:"school,omitempty"`
	Major          string `mapstructure:"major" json:"major,omitempty"`
	GraduationYear int    `mapstructure:"graduation-year" json:"graduation_year,omitempty"`
	GPA            string `mapstructure:"gpa" json:"gpa,omitempty"`
}

// Record is the full applicant profile.
type Record struct {
	Personal     Personal     `mapstructure:"personal" json:"personal"`
	Contact      Contact      `mapstructure:"contact" json:"contact"`
	Professional Professional `mapstructure:"professional" json:"professional"`
	Education    Education    `mapstructure:"education" json:"education"`
	Skills       []string     `mapstructure:"skills" json:"skills,omitempty"`
}

// Load reads a profile from a YAML file.
func Load(path string) (*Record, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading profile file %q: %w", path, err)
	}

	var rec Record
	if err := v.Unmarshal(&rec); err != nil {
		return nil, fmt.Errorf("parsing profile file %q: %w", path, err)
	}

	return &rec, nil
}

// FullName joins first and last names.
func (r *Record) FullName() string {
	return strings.TrimSpace(r.Personal.FirstName + " " + r.Personal.LastName)
}

// Lookup resolves a dotted attribute path like "personal.first_name" to its
// string value. Computed paths (personal.full_name, skills.list) are
// supported. The second return is false when the path is unknown or empty.
func (r *Record) Lookup(path string) (string, bool) {
	var val string

	switch path {
	case "personal.first_name":
		val = r.Personal.FirstName
	case "personal.last_name":
		val = r.Personal.LastName
	case "personal.full_name":
		val = r.FullName()
	case "personal.preferred_name":
		val = r.Personal.PreferredName
	case "personal.address_line1":
		val = r.Personal.AddressLine1
	case "personal.address_line2":
		val = r.Personal.AddressLine2
	case "personal.city":
		val = r.Personal.City
	case "personal.state":
		val = r.Personal.State
	case "personal.postal_code":
		val = r.Personal.PostalCode
	case "personal.country":
		val = r.Personal.Country
	case "personal.work_authorization":
		val = r.Personal.WorkAuthorization
	case "personal.needs_sponsorship":
		if r.Personal.WorkAuthorization == "" && !r.Personal.NeedsSponsorship {
			return "", false
		}
		val = strconv.FormatBool(r.Personal.NeedsSponsorship)
	case "contact.email":
		val = r.Contact.Email
	case "contact.phone":
		val = r.Contact.Phone
	case "contact.linkedin_url":
		val = r.Contact.LinkedinURL
	case "contact.github_url":
		val = r.Contact.GithubURL
	case "contact.portfolio_url":
		val = r.Contact.PortfolioURL
	case "contact.website":
		val = r.Contact.Website
	case "professional.current_title":
		val = r.Professional.CurrentTitle
	case "professional.current_company":
		val = r.Professional.CurrentCompany
	case "professional.years_experience":
		if r.Professional.YearsExperience == 0 {
			return "", false
		}
		val = strconv.Itoa(r.Professional.YearsExperience)
	case "professional.desired_salary":
		val = r.Professional.DesiredSalary
	case "professional.current_salary":
		val = r.Professional.CurrentSalary
	case "professional.notice_period":
		val = r.Professional.NoticePeriod
	case "professional.summary":
		val = r.Professional.Summary
	case "education.degree":
		val = r.Education.Degree
	case "education.school":
		val = r.Education.School
	case "education.major":
		val = r.Education.Major
	case "education.graduation_year":
		if r.Education.GraduationYear == 0 {
			return "", false
		}
		val = strconv.Itoa(r.Education.GraduationYear)
	case "education.gpa":
		val = r.Education.GPA
	case "skills.list":
		val = strings.Join(r.Skills, ", ")
	default:
		return "", false
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return "", false
	}
	return val, true
}
