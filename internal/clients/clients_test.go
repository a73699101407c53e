package clients

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"leadscout-engine/internal/domain"
)

func testClient(email string) domain.Client {
	return domain.Client{
		Email:        email,
		BusinessName: "Acme Leads",
		TargetCities: []string{"Austin, TX"},
		Keywords:     []string{"bakery"},
		IsActive:     true,
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())
	list, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestAddSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Add(testClient("a@b.com")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(testClient("c@d.com")); err != nil {
		t.Fatalf("add second: %v", err)
	}

	list, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(list))
	}
	if !reflect.DeepEqual(list[0], testClient("a@b.com")) {
		t.Fatalf("round trip mismatch: %+v", list[0])
	}
}

func TestAddRejectsDuplicateEmail(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Add(testClient("a@b.com")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(testClient("A@B.COM")); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
}

func TestLoadLegacyJoinedStrings(t *testing.T) {
	dir := t.TempDir()
	legacy := `[
  {
    "email": "a@b.com",
    "businessName": "Acme Leads",
    "targetCities": "Austin, TX; Dallas, TX",
    "keyword": "bakery, coffee shop",
    "isActive": true
  }
]`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	list, err := NewStore(dir).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 client, got %d", len(list))
	}
	c := list[0]
	wantCities := []string{"Austin, TX", "Dallas, TX"}
	if !reflect.DeepEqual(c.TargetCities, wantCities) {
		t.Fatalf("cities = %v, want %v", c.TargetCities, wantCities)
	}
	wantKeywords := []string{"bakery", "coffee shop"}
	if !reflect.DeepEqual(c.Keywords, wantKeywords) {
		t.Fatalf("keywords = %v, want %v", c.Keywords, wantKeywords)
	}
}

func TestKeywordsListPreferredOverLegacyString(t *testing.T) {
	dir := t.TempDir()
	mixed := `[
  {
    "email": "a@b.com",
    "businessName": "Acme Leads",
    "targetCities": ["Austin, TX"],
    "keywords": ["bakery"],
    "keyword": "stale, ignored",
    "isActive": false
  }
]`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(mixed), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	list, err := NewStore(dir).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := list[0].Keywords; len(got) != 1 || got[0] != "bakery" {
		t.Fatalf("keywords = %v, want [bakery]", got)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Add(testClient("a@b.com")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(testClient("c@d.com")); err != nil {
		t.Fatalf("add: %v", err)
	}

	edited := testClient("a@b.com")
	edited.IsActive = false
	if err := s.Update(0, edited); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get(0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive {
		t.Fatal("update did not persist")
	}

	removed, err := s.Delete(0)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.Email != "a@b.com" {
		t.Fatalf("removed wrong client: %s", removed.Email)
	}
	list, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 1 || list[0].Email != "c@d.com" {
		t.Fatalf("unexpected remaining list: %+v", list)
	}

	if _, err := s.Delete(5); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveFilters(t *testing.T) {
	s := NewStore(t.TempDir())
	a := testClient("a@b.com")
	b := testClient("c@d.com")
	b.IsActive = false
	if err := s.Add(a); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(b); err != nil {
		t.Fatalf("add: %v", err)
	}

	active, err := s.Active()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 || active[0].Email != "a@b.com" {
		t.Fatalf("unexpected active set: %+v", active)
	}
}

func TestSaveKeepsBackup(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Save([]domain.Client{testClient("a@b.com")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save([]domain.Client{testClient("c@d.com")}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if _, err := os.Stat(s.path + ".bak"); err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
}
