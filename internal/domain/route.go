package domain

// RouteKind tags the RouteOutcome variant.
type RouteKind int

const (
	RouteSelected RouteKind = iota
	RouteUnsupported
	RouteClarify
)

func (k RouteKind) String() string {
	switch k {
	case RouteSelected:
		return "selected"
	case RouteUnsupported:
		return "unsupported"
	case RouteClarify:
		return "clarify"
	default:
		return "unknown"
	}
}

// RouteOutcome is the result of mapping a request to a plugin. Only the
// fields of the active variant are set.
type RouteOutcome struct {
	Kind RouteKind

	// RouteSelected
	Plugin string

	// RouteUnsupported
	Reason string

	// RouteClarify
	Question string
	Options  []ClarifyOption
}

// ClarifyOption is one choice offered when the request is ambiguous.
type ClarifyOption struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Detail         string `json:"detail"`
	ResolvedIntent string `json:"resolved_intent"`
}

// Selected builds a RouteSelected outcome.
func Selected(plugin string) RouteOutcome {
	return RouteOutcome{Kind: RouteSelected, Plugin: plugin}
}

// Unsupported builds a RouteUnsupported outcome.
func Unsupported(reason string) RouteOutcome {
	return RouteOutcome{Kind: RouteUnsupported, Reason: reason}
}

// Clarify builds a RouteClarify outcome.
func Clarify(question string, options []ClarifyOption) RouteOutcome {
	return RouteOutcome{Kind: RouteClarify, Question: question, Options: options}
}
