package types

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Plan bounds how many documents a user may own and how long each may be.
type Plan struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Quota       int    `json:"quota"`
	PagesPerPdf int    `json:"pages_per_pdf"`
	PriceCents  int    `json:"price_cents"`
}

var Plans = []Plan{
	{Name: "Free", Slug: PlanFree, Quota: 10, PagesPerPdf: 10, PriceCents: 0},
	{Name: "Pro", Slug: PlanPro, Quota: 70, PagesPerPdf: 30, PriceCents: 199},
}

// PlanBySlug falls back to the free plan for unknown or empty slugs.
func PlanBySlug(slug string) Plan {
	for _, p := range Plans {
		if p.Slug == slug {
			return p
		}
	}
	return Plans[0]
}
