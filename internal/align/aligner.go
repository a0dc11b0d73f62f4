package align

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tybalex/otto8-log-tool/internal/mask"
	"github.com/tybalex/otto8-log-tool/internal/model"
)

// Wildcard is the generic placeholder the template store substitutes for
// token positions that vary across lines of one cluster.
const Wildcard = "<*>"

// ErrStructureMismatch reports that a template and a masked line do not have
// the same token count, i.e. the line cannot have produced that template.
var ErrStructureMismatch = errors.New("align: template and line do not match in structure")

var markerPattern = regexp.MustCompile(`<[^<>]*>`)

// SplitRuns decomposes one whitespace-delimited token into its constituent
// runs: placeholder markers and the literal fragments between them, in order.
// "fleet.cattle.io<PATH>" becomes ["fleet.cattle.io", "<PATH>"], and
// "<PATH><DIGITS>" becomes ["<PATH>", "<DIGITS>"].
func SplitRuns(token string) []string {
	var runs []string
	last := 0
	for _, loc := range markerPattern.FindAllStringIndex(token, -1) {
		if loc[0] > last {
			runs = append(runs, token[last:loc[0]])
		}
		runs = append(runs, token[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(token) {
		runs = append(runs, token[last:])
	}
	return runs
}

func isMarker(run string) bool {
	return strings.HasPrefix(run, "<") && strings.HasSuffix(run, ">")
}

// ExtractParameters walks template and masked line token by token and replays
// the catalogue onto the matched placeholders, returning the bound parameter
// values in order of occurrence.
//
// A wildcard template token concatenates the runs of its masked-line token
// into one value; a typed template token (possibly fused with literal text)
// emits one occurrence per placeholder run. The asymmetry is deliberate and
// mirrors how templates are consumed downstream.
func ExtractParameters(template, maskedLine string, cat *mask.Catalogue) ([]model.ParameterOccurrence, error) {
	templateTokens := strings.Fields(template)
	lineTokens := strings.Fields(maskedLine)

	if len(templateTokens) != len(lineTokens) {
		return nil, fmt.Errorf("%w: template has %d tokens, line has %d",
			ErrStructureMismatch, len(templateTokens), len(lineTokens))
	}

	var occurrences []model.ParameterOccurrence
	for i, templateToken := range templateTokens {
		switch {
		case templateToken == Wildcard:
			// The masked-line token may itself be a fusion of literals and
			// typed markers, e.g. "fleet.cattle.io<PATH>" or "<PATH><DIGITS>".
			// Reassemble it into the one concrete value the wildcard stood for.
			var value strings.Builder
			for _, run := range SplitRuns(lineTokens[i]) {
				if isMarker(run) && cat.Has(run) {
					v, _ := cat.Pop(run)
					value.WriteString(v)
					continue
				}
				value.WriteString(run)
			}
			occurrences = append(occurrences, model.ParameterOccurrence{
				Token: Wildcard,
				Value: value.String(),
			})

		default:
			// Typed markers are reported individually, even when the template
			// token fuses several of them with literal text.
			for _, run := range SplitRuns(templateToken) {
				if !isMarker(run) {
					continue
				}
				v, ok := cat.Pop(run)
				if !ok {
					return nil, fmt.Errorf("align: no recorded value left for %s at token %d", run, i)
				}
				occurrences = append(occurrences, model.ParameterOccurrence{
					Token: run,
					Value: v,
				})
			}
		}
	}
	return occurrences, nil
}
