package domain

import "testing"

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		ext      string
		category Category
		ok       bool
	}{
		{"mp3", CategoryAudio, true},
		{"mp4", CategoryVideo, true},
		{"jpeg", CategoryImage, true},
		{"docx", CategoryDocument, true},
		{"exe", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := CategoryOf(tc.ext)
		if ok != tc.ok {
			t.Fatalf("CategoryOf(%q) ok = %v, want %v", tc.ext, ok, tc.ok)
		}
		if ok && got != tc.category {
			t.Fatalf("CategoryOf(%q) = %q, want %q", tc.ext, got, tc.category)
		}
	}
}

func TestTargetAllowed_PerExtensionPolicy(t *testing.T) {
	if !TargetAllowed("jpg", "tiff") {
		t.Fatal("jpg -> tiff should be allowed")
	}
	// targets are declared per extension, not per category
	if TargetAllowed("gif", "tiff") {
		t.Fatal("gif -> tiff must not be allowed")
	}
	if !TargetAllowed("mp4", "avi") {
		t.Fatal("mp4 -> avi should be allowed")
	}
	if TargetAllowed("mp4", "mp3") {
		t.Fatal("cross-category target must not be allowed")
	}
	if TargetAllowed("exe", "pdf") {
		t.Fatal("unknown source must have no targets")
	}
}

func TestAllowedTargets_UnknownExtensionIsEmpty(t *testing.T) {
	if targets := AllowedTargets("xyz"); len(targets) != 0 {
		t.Fatalf("expected no targets, got %v", targets)
	}
	if targets := AllowedTargets("wav"); len(targets) == 0 {
		t.Fatal("wav should have targets")
	}
}

func TestCanAccess_IdentitySpacesNeverCross(t *testing.T) {
	userOwned := &Conversion{ID: "a", UserID: "user-1"}
	guestOwned := &Conversion{ID: "b", GuestID: "guest-123"}

	if !userOwned.CanAccess(Requester{UserID: "user-1"}) {
		t.Fatal("owner user should access own conversion")
	}
	if userOwned.CanAccess(Requester{GuestID: "user-1"}) {
		t.Fatal("guest id equal in string form to a user id must not grant access")
	}
	if !guestOwned.CanAccess(Requester{GuestID: "guest-123"}) {
		t.Fatal("owner guest should access own conversion")
	}
	if guestOwned.CanAccess(Requester{GuestID: "guest-999"}) {
		t.Fatal("other guest must not access the conversion")
	}
	if guestOwned.CanAccess(Requester{UserID: "guest-123"}) {
		t.Fatal("user id equal in string form to a guest id must not grant access")
	}
	if guestOwned.CanAccess(Requester{}) {
		t.Fatal("empty requester must not match anything")
	}
}

func TestContentTypeOf(t *testing.T) {
	if got := ContentTypeOf("pdf"); got != "application/pdf" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if got := ContentTypeOf("unknown"); got != "application/octet-stream" {
		t.Fatalf("expected octet-stream fallback, got %s", got)
	}
}
