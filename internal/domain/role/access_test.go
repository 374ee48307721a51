package role

import (
	"reflect"
	"testing"
)

func sectionNames(sections []Section) []string {
	names := make([]string, 0, len(sections))
	for _, section := range sections {
		names = append(names, section.Name)
	}
	return names
}

func TestVisibleSectionsDenyByDefault(t *testing.T) {
	for _, categories := range [][]string{nil, {}} {
		desc := &Descriptor{Name: NameNominee, AccessCategories: categories}
		got := sectionNames(VisibleSections(desc))
		if !reflect.DeepEqual(got, []string{"Dashboard", "Logout"}) {
			t.Fatalf("expected only always-visible sections for %v, got %v", categories, got)
		}
	}
}

func TestVisibleSectionsNomineeFinance(t *testing.T) {
	desc := &Descriptor{Name: NameNominee, AccessCategories: []string{CategoryFinance}}
	got := sectionNames(VisibleSections(desc))
	want := []string{"Dashboard", "Transactions", "Assets", "Liabilities", "Insurance", "Logout"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestVisibleSectionsOwnerAndTrustee(t *testing.T) {
	owner := sectionNames(VisibleSections(nil))
	for _, name := range owner {
		if name == "Nominee Requests" {
			t.Fatalf("owner should not see the trustee panel")
		}
	}
	if len(owner) != len(sections)-1 {
		t.Fatalf("expected owner to see every owner section, got %v", owner)
	}

	trustee := sectionNames(VisibleSections(&Descriptor{Name: NameTrustee}))
	if !reflect.DeepEqual(trustee, []string{"Dashboard", "Nominee Requests", "Logout"}) {
		t.Fatalf("unexpected trustee sections %v", trustee)
	}
}

func TestCanView(t *testing.T) {
	nominee := &Descriptor{Name: NameNominee, AccessCategories: []string{CategoryFamily}}
	if !CanView(nominee, CategoryFamily) || CanView(nominee, CategoryFinance) {
		t.Fatalf("unexpected nominee access")
	}
	if !CanView(DefaultDescriptor(), CategoryFinance) {
		t.Fatalf("owner should see everything")
	}
	if CanView(&Descriptor{Name: NameTrustee}, CategoryFinance) {
		t.Fatalf("trustee should not see record sections")
	}
}

func TestCanonicalCategories(t *testing.T) {
	canonical, unknown := CanonicalCategories([]string{" finance", "FAMILY", "Finance", "pets", ""})
	if !reflect.DeepEqual(canonical, []string{CategoryFinance, CategoryFamily}) {
		t.Fatalf("unexpected canonical %v", canonical)
	}
	if !reflect.DeepEqual(unknown, []string{"pets"}) {
		t.Fatalf("unexpected unknown %v", unknown)
	}
}
