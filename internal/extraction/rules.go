package extraction

import (
	"regexp"
	"strings"

	types "github.com/yungbote/weave-backend/internal/domain"
)

const (
	PlanImportance     = 0.75
	DecisionImportance = 0.85
	PromiseImportance  = 0.70
)

var (
	planActivity = regexp.MustCompile(`(?i)\b(?:meet(?:ing|up)?|go(?:ing)?|plan(?:ning|ned)?|trip|visit(?:ing)?|hik(?:e|es|ing)|dinner|lunch|breakfast|brunch|party|picnic|movies?|coffee|drinks|concert|game|bbq|barbecue|celebrat(?:e|ion)|birthday|bring|pick(?:ing)? up|host(?:ing)?)\b`)
	planTemporal = regexp.MustCompile(`(?i)\b(?:at|on|this|next|tomorrow|tonight|today|weekend|(?:mon|tues|wednes|thurs|fri|satur|sun)day|\d{1,2}(?::\d{2})?\s?(?:am|pm))\b`)

	decisionVocab = regexp.MustCompile(`(?i)\b(?:decid(?:e|ed|ing)|decision|choose|chose|chosen|will use|let's use|going with|go with|agreed?|settled on|should)\b`)

	promiseVocab = regexp.MustCompile(`(?i)(?:\bi['’]ll\b|\bi will\b|\bpromise[sd]?\b|\bbring(?:ing)?\b|\bmake sure\b)`)
)

type rule struct {
	typ        types.EntityType
	importance float64
	matches    func(content string) bool
}

// Rules is the default pattern-based Extractor. Each classifier runs
// independently so one message may yield a plan, a decision and a promise.
type Rules struct {
	rules []rule
}

func NewRules() *Rules {
	return &Rules{rules: []rule{
		{
			typ:        types.EntityPlan,
			importance: PlanImportance,
			matches: func(c string) bool {
				return planActivity.MatchString(c) && planTemporal.MatchString(c)
			},
		},
		{typ: types.EntityDecision, importance: DecisionImportance, matches: decisionVocab.MatchString},
		{typ: types.EntityPromise, importance: PromiseImportance, matches: promiseVocab.MatchString},
	}}
}

func (r *Rules) Extract(content string) []Candidate {
	if strings.TrimSpace(content) == "" {
		return []Candidate{}
	}
	title := Title(content)
	desc := Description(content)
	out := make([]Candidate, 0, len(r.rules))
	for _, rl := range r.rules {
		if !rl.matches(content) {
			continue
		}
		out = append(out, Candidate{
			Type:        rl.typ,
			Title:       title,
			Description: desc,
			Importance:  rl.importance,
		})
	}
	return out
}
