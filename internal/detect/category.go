package detect

import "strings"

// Category is the semantic bucket a field belongs to.
type Category string

const (
	CategoryPersonal      Category = "personal"
	CategoryContact       Category = "contact"
	CategoryProfessional  Category = "professional"
	CategoryEducation     Category = "education"
	CategoryDocuments     Category = "documents"
	CategoryAuthorization Category = "authorization"
	CategoryOther         Category = "other"
)

// Categories lists the full taxonomy.
var Categories = []Category{
	CategoryPersonal,
	CategoryContact,
	CategoryProfessional,
	CategoryEducation,
	CategoryDocuments,
	CategoryAuthorization,
	CategoryOther,
}

type categoryKeywords struct {
	category Category
	keywords []string
}

// categoryDict is ordered: the first category with a containment hit wins.
// More specific buckets come before the greedy ones ("name" would otherwise
// swallow "company name").
var categoryDict = []categoryKeywords{
	{CategoryAuthorization, []string{
		"sponsorship", "work authorization", "authorized to work",
		"eligible to work", "visa", "citizen", "clearance", "right to work",
	}},
	{CategoryContact, []string{
		"email", "e-mail", "phone", "telephone", "mobile", "cell",
		"linkedin", "github", "portfolio", "website", "contact number",
	}},
	{CategoryDocuments, []string{
		"resume", "cv", "cover letter", "upload", "attachment", "transcript",
	}},
	{CategoryEducation, []string{
		"education", "school", "university", "college", "degree", "major",
		"graduation", "gpa", "field of study",
	}},
	{CategoryProfessional, []string{
		"experience", "employer", "company", "current title", "job title",
		"position", "occupation", "salary", "compensation", "notice period",
		"skills", "summary", "role",
	}},
	{CategoryPersonal, []string{
		"first name", "last name", "full name", "surname", "given name",
		"middle name", "preferred name", "name", "address", "street", "city",
		"town", "state", "province", "zip", "postal", "country", "date of birth",
	}},
}

// basePriority maps a category to its base weight; required fields add 10.
var basePriority = map[Category]int{
	CategoryPersonal:      100,
	CategoryContact:       90,
	CategoryAuthorization: 85,
	CategoryProfessional:  80,
	CategoryEducation:     70,
	CategoryDocuments:     60,
	CategoryOther:         50,
}

// Categorize assigns a category by containment against the ordered keyword
// dictionary. The input should be the concatenated
// label+name+identifier+placeholder text; matching is case-insensitive.
func Categorize(text string) Category {
	text = strings.ToLower(text)
	for _, entry := range categoryDict {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.category
			}
		}
	}
	return CategoryOther
}

// PriorityFor derives the fill priority from category and required flag.
func PriorityFor(c Category, required bool) int {
	p, ok := basePriority[c]
	if !ok {
		p = basePriority[CategoryOther]
	}
	if required {
		p += 10
	}
	return p
}
