package port

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shinji-kodama/portkeeper/internal/model"
)

// Resolve expands a port specification into the ordered set of ports to
// reserve.
//
// Both include and exclude are comma-separated lists of tokens, where each
// token is a single port ("5000") or an inclusive range ("5000-5010").
// The result is the include expansion with every excluded port removed,
// deduplicated, in first-seen order. Exclusions never reorder what remains.
//
// A reversed range such as "10-9" expands to nothing rather than failing.
// Trailing commas are ignored. Any other malformed token (non-numeric
// text, "10-", an empty token between commas, or a port outside 1-65535)
// fails with model.ErrInvalidSpecification.
//
// Resolve has no side effects.
func Resolve(include, exclude string) ([]int, error) {
	included, err := expand(include)
	if err != nil {
		return nil, fmt.Errorf("ports %q: %w", include, err)
	}

	var excluded []int
	if strings.TrimSpace(exclude) != "" {
		excluded, err = expand(exclude)
		if err != nil {
			return nil, fmt.Errorf("ports.exclude %q: %w", exclude, err)
		}
	}

	skip := make(map[int]struct{}, len(excluded)+len(included))
	for _, p := range excluded {
		skip[p] = struct{}{}
	}

	// Marking each port as seen once it is emitted gives deduplication
	// with first-occurrence order in the same pass.
	ports := make([]int, 0, len(included))
	for _, p := range included {
		if _, ok := skip[p]; ok {
			continue
		}
		skip[p] = struct{}{}
		ports = append(ports, p)
	}
	return ports, nil
}

// ResolveSpec is Resolve for a model.PortSpec.
func ResolveSpec(spec model.PortSpec) ([]int, error) {
	return Resolve(spec.Include, spec.Exclude)
}

// expand turns a comma-separated list of tokens into the ports it names,
// in order and with duplicates kept. Trailing empty tokens ("5000,5001,")
// are dropped; an empty token anywhere else is an error.
func expand(list string) ([]int, error) {
	tokens := strings.Split(list, ",")
	for len(tokens) > 1 && strings.TrimSpace(tokens[len(tokens)-1]) == "" {
		tokens = tokens[:len(tokens)-1]
	}

	var ports []int
	for _, token := range tokens {
		low, high, err := parseRange(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		for p := low; p <= high; p++ {
			ports = append(ports, p)
		}
	}
	return ports, nil
}

// parseRange parses "N" or "N-M". For "N" both bounds are N.
func parseRange(token string) (int, int, error) {
	if token == "" {
		return 0, 0, fmt.Errorf("%w: empty token", model.ErrInvalidSpecification)
	}

	lowText, highText, isRange := strings.Cut(token, "-")
	low, err := parsePort(lowText, token)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return low, low, nil
	}

	high, err := parsePort(highText, token)
	if err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

// parsePort parses one bound of a token. strconv.Atoi accepts a leading
// sign ("+5"), so the text is checked to be plain digits first.
func parsePort(text, token string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.IndexFunc(text, isNotDigit) >= 0 {
		return 0, fmt.Errorf("%w: %q is not a port or range", model.ErrInvalidSpecification, token)
	}

	n, err := strconv.Atoi(text)
	if err != nil || n < model.MinPort || n > model.MaxPort {
		return 0, fmt.Errorf("%w: port %q in %q must be in %d-%d",
			model.ErrInvalidSpecification, text, token, model.MinPort, model.MaxPort)
	}
	return n, nil
}

func isNotDigit(r rune) bool {
	return r < '0' || r > '9'
}

// FormatRanges renders ports as a compact spec string, collapsing runs of
// consecutive ports into ranges: [5000 5001 5002 5010] → "5000-5002,5010".
// Order is kept; only adjacent ascending runs are merged.
func FormatRanges(ports []int) string {
	if len(ports) == 0 {
		return ""
	}

	var b strings.Builder
	start := ports[0]
	prev := ports[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			b.WriteString(strconv.Itoa(start))
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}

	for _, p := range ports[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return b.String()
}
