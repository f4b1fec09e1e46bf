package pitch

import "fmt"

// Fallback templates. Deliberately shaped like a real generation — an
// executive-summary paragraph followed by a numbered business-model
// list — so a caller cannot tell a fallback from a backend success by
// structure alone.
const fallbackSummaryTemplate = `%[1]s for %[2]s pairs the %[1]s experience everyone already understands with the underserved %[2]s market. One tap connects people who need %[2]s with vetted providers nearby, and the matching loop keeps both sides coming back: demand gets convenience, supply gets a steady pipeline, and the platform sits on the data in between.

Business model:
1. Take rate on every %[2]s transaction booked through the app.
2. Subscription tier with priority matching for frequent users.
3. Promoted placement for providers competing in dense markets.`

const fallbackQuipTemplate = `It's %s, but for %s. What could possibly go wrong?`

// FallbackSummary produces a deterministic pitch summary for the given
// pair. Used whenever the backend times out or yields no usable summary.
func FallbackSummary(app, niche string) string {
	return fmt.Sprintf(fallbackSummaryTemplate, app, niche)
}

// FallbackQuip produces the deterministic one-liner counterpart.
func FallbackQuip(app, niche string) string {
	return fmt.Sprintf(fallbackQuipTemplate, app, niche)
}
