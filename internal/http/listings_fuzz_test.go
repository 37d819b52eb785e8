package httpserver

import (
	"net/url"
	"testing"
)

func FuzzBuildListingFilters(f *testing.F) {
	seeds := []string{
		"kind=restaurant&q=pizza&city=Rosario",
		"kind=castle",
		"limit=200",
		"cursor=bm90LWpzb24=",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		_, _ = buildListingFilters(values)
	})
}
