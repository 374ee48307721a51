package role

import "strings"

// Access categories are the sidebar groups a nominee can be granted.
const (
	CategoryFamily            = "Family"
	CategoryFinance           = "Finance"
	CategoryFinancialPlanning = "Financial Planning"
)

const (
	groupAlways     = ""
	groupOwnerOnly  = "owner"
	groupTrusteeApp = "trustee"
)

var Categories = []string{CategoryFamily, CategoryFinance, CategoryFinancialPlanning}

type Section struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Group string `json:"group,omitempty"`
}

var sections = []Section{
	{Name: "Dashboard", Path: "/dashboard", Group: groupAlways},
	{Name: "Family Details", Path: "/dashboard/family", Group: CategoryFamily},
	{Name: "Health Records", Path: "/dashboard/health-records", Group: CategoryFamily},
	{Name: "Documents", Path: "/dashboard/documents", Group: CategoryFamily},
	{Name: "Transactions", Path: "/dashboard/transactions", Group: CategoryFinance},
	{Name: "Assets", Path: "/dashboard/assets", Group: CategoryFinance},
	{Name: "Liabilities", Path: "/dashboard/liabilities", Group: CategoryFinance},
	{Name: "Insurance", Path: "/dashboard/insurance", Group: CategoryFinance},
	{Name: "Budget", Path: "/dashboard/budget", Group: CategoryFinancialPlanning},
	{Name: "Goals", Path: "/dashboard/goals", Group: CategoryFinancialPlanning},
	{Name: "Succession & Will", Path: "/dashboard/succession", Group: CategoryFinancialPlanning},
	{Name: "Trustee & Nominees", Path: "/dashboard/delegates", Group: groupOwnerOnly},
	{Name: "Nominee Requests", Path: "/dashboard/nominee-requests", Group: groupTrusteeApp},
	{Name: "Logout", Path: "/logout", Group: groupAlways},
}

// VisibleSections is deny-by-default for delegates: a nominee without access
// categories sees only the always-visible sections.
func VisibleSections(desc *Descriptor) []Section {
	name := NameUser
	if desc != nil {
		name = desc.Name
	}

	granted := map[string]bool{}
	if desc != nil && name == NameNominee {
		for _, category := range desc.AccessCategories {
			granted[category] = true
		}
	}

	result := make([]Section, 0, len(sections))
	for _, section := range sections {
		visible := false
		switch {
		case section.Group == groupAlways:
			visible = true
		case name == NameUser:
			visible = section.Group != groupTrusteeApp
		case name == NameTrustee:
			visible = section.Group == groupTrusteeApp
		case name == NameNominee:
			visible = granted[section.Group]
		}
		if visible {
			result = append(result, section)
		}
	}
	return result
}

// CanView reports whether desc may open sections of the given category.
func CanView(desc *Descriptor, category string) bool {
	if desc == nil || desc.Name == NameUser {
		return true
	}
	if desc.Name != NameNominee {
		return false
	}
	for _, granted := range desc.AccessCategories {
		if granted == category {
			return true
		}
	}
	return false
}

// CanonicalCategories maps input case-insensitively onto the known categories,
// dropping duplicates. Unknown values are returned separately.
func CanonicalCategories(input []string) (canonical []string, unknown []string) {
	seen := make(map[string]bool, len(input))
	canonical = make([]string, 0, len(input))
	for _, raw := range input {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		match := ""
		for _, category := range Categories {
			if strings.EqualFold(category, value) {
				match = category
				break
			}
		}
		if match == "" {
			unknown = append(unknown, value)
			continue
		}
		if seen[match] {
			continue
		}
		seen[match] = true
		canonical = append(canonical, match)
	}
	return canonical, unknown
}
