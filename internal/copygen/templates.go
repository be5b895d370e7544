package copygen

import "fmt"

// Template fill-in is the non-LLM copy path: a fixed bank of patterns filled
// with the brief's product and audience. Deterministic and offline.

type pattern struct {
	headline  string
	paragraph string
	cta       string
}

var patterns = []pattern{
	{
		headline:  "Meet %s",
		paragraph: "Built for %s who want more from every day. Try it and see the difference for yourself.",
		cta:       "Learn More",
	},
	{
		headline:  "%s, finally done right",
		paragraph: "Thousands of %s already made the switch. Join them today and get started in minutes.",
		cta:       "Shop Now",
	},
	{
		headline:  "The smarter way to get %s",
		paragraph: "Designed with %s in mind. No hassle, no surprises, just results you can count on.",
		cta:       "Get Started",
	},
	{
		headline:  "Why %s is trending",
		paragraph: "See why %s everywhere keep coming back. Limited-time offer while supplies last.",
		cta:       "Sign Up",
	},
	{
		headline:  "Your %s upgrade is here",
		paragraph: "We made it simple for %s to get exactly what they need, when they need it.",
		cta:       "Learn More",
	},
}

// FillTemplates generates up to count variations from the pattern bank.
// Used when no copy service is configured.
func FillTemplates(brief Brief) []Variation {
	count := brief.Count
	if count <= 0 || count > len(patterns) {
		count = len(patterns)
	}
	audience := brief.Audience
	if audience == "" {
		audience = "people"
	}

	out := make([]Variation, 0, count)
	for _, p := range patterns[:count] {
		out = append(out, Variation{
			Headline:  fmt.Sprintf(p.headline, brief.Product),
			Paragraph: fmt.Sprintf(p.paragraph, audience),
			CTA:       p.cta,
		})
	}
	return out
}
