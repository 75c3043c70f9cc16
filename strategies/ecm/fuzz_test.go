package ecm

import (
	"strings"
	"testing"
)

func FuzzParseOutput(f *testing.F) {
	f.Add(sampleOutput)
	f.Add("Found prime factor of 2 digits: 97\n")
	f.Add("found composite factor:\n")
	f.Add("")
	f.Fuzz(func(t *testing.T, out string) {
		for _, finding := range ParseOutput(strings.NewReader(out)) {
			if finding.Value == nil || finding.Value.Sign() <= 0 {
				t.Fatalf("non-positive finding from %q", out)
			}
			switch finding.Label {
			case "prime", "probable prime", "composite":
			default:
				t.Fatalf("unexpected label %q", finding.Label)
			}
		}
	})
}
