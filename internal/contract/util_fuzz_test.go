package contract

import (
	"testing"

	"github.com/huangsam/healthgap/schema"
)

// FuzzParseDomainThresholdsString fuzzes the --thresholds-override parser.
func FuzzParseDomainThresholdsString(f *testing.F) {
	seeds := []string{
		"education:60",
		"education:60,health_outcomes:40",
		" social_context : 12.5 ,",
		"education",
		"::,,",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		got, err := parseDomainThresholdsString(s)
		if err != nil {
			return
		}
		for domain := range got {
			if _, ok := schema.ValidDomains[domain]; !ok {
				t.Fatalf("parsed unknown domain %q from %q", domain, s)
			}
		}
	})
}
