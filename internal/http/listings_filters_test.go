package httpserver

import (
	"net/url"
	"testing"

	"github.com/conectcity/marketplace-api/internal/config"
	"github.com/conectcity/marketplace-api/internal/domain"
)

func TestBuildListingFilters(t *testing.T) {
	values, _ := url.ParseQuery("kind=restaurant&q= milanesa &city= Córdoba &owner=jorge@example.com&limit=150")

	filters, err := buildListingFilters(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Kind == nil || *filters.Kind != domain.KindRestaurant {
		t.Fatalf("kind not parsed: %+v", filters.Kind)
	}
	if filters.Query == nil || *filters.Query != "milanesa" {
		t.Fatalf("query not trimmed: %+v", filters.Query)
	}
	if filters.City == nil || *filters.City != "Córdoba" {
		t.Fatalf("city not trimmed: %+v", filters.City)
	}
	if filters.OwnerEmail == nil || *filters.OwnerEmail != "jorge@example.com" {
		t.Fatalf("owner parse failed")
	}
	if filters.Limit != 150 {
		t.Fatalf("limit not parsed: %d", filters.Limit)
	}
}

func TestBuildListingFilters_InvalidKind(t *testing.T) {
	values, _ := url.ParseQuery("kind=castle")
	if _, err := buildListingFilters(values); err == nil {
		t.Fatalf("expected error for invalid kind")
	}
}

func TestBuildListingFilters_InvalidLimit(t *testing.T) {
	values, _ := url.ParseQuery("limit=abc")
	if _, err := buildListingFilters(values); err == nil {
		t.Fatalf("expected error for invalid limit")
	}
}

func TestBuildListingFilters_InvalidCursor(t *testing.T) {
	values, _ := url.ParseQuery("cursor=!!!not-base64!!!")
	if _, err := buildListingFilters(values); err == nil {
		t.Fatalf("expected error for invalid cursor")
	}
}

func TestVerifyBearer(t *testing.T) {
	srv := &Server{cfg: config.Config{AuthToken: "secret"}}
	cases := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"secret", false},
		{"Bearer secret", true},
		{"Bearer  secret ", true},
		{"Bearer wrong", false},
		{"Basic secret", false},
	}
	for _, tc := range cases {
		if got := srv.verifyBearer(tc.header); got != tc.want {
			t.Fatalf("verifyBearer(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}
