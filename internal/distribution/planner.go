// Package distribution decides how much automation each outlet gets and
// runs the daily distribution workflow against that policy.
//
// The tier ladder exists because platforms punish automation unevenly:
// Medium tolerates API publishing, Reddit shadowbans it, Mumsnet nukes
// accounts for it. Content never moves to a platform with more automation
// than its tier allows.
package distribution

import (
	"github.com/giftloop/megaphone/internal/models"
)

// Policy is one row of the tier table: how far automation may go on a
// platform, and which content types the platform accepts.
type Policy struct {
	Tier         models.Tier
	Action       models.DistributionActionType // most automated action allowed
	ContentTypes []string
}

// platformPolicies is the authoritative tier table.
//
// Tier 1 (auto-safe): direct REST publishing tolerated. Still defaults to
// drafts unless the per-platform auto-publish flag is on.
// Tier 2 (semi-auto): we monitor and draft; a human posts after approval.
// Tier 3 (approval-required): outreach email. Nothing leaves the system.
// Tier 4 (monitor-only): intelligence gathering, zero engagement.
var platformPolicies = map[string]Policy{
	"medium":    {Tier: models.TierAutoSafe, Action: models.ActionPublished, ContentTypes: []string{"article"}},
	"linkedin":  {Tier: models.TierAutoSafe, Action: models.ActionPublished, ContentTypes: []string{"article"}},
	"pinterest": {Tier: models.TierAutoSafe, Action: models.ActionPublished, ContentTypes: []string{"article", "image"}},
	"reddit":    {Tier: models.TierSemiAuto, Action: models.ActionQueuedForApproval, ContentTypes: []string{"reply"}},
	"quora":     {Tier: models.TierSemiAuto, Action: models.ActionQueuedForApproval, ContentTypes: []string{"reply"}},
	"email":     {Tier: models.TierApproval, Action: models.ActionDrafted, ContentTypes: []string{"email"}},
	"mumsnet":   {Tier: models.TierMonitorOnly, Action: models.ActionMonitored, ContentTypes: []string{"intel"}},
}

// Route returns the action the workflow may take for this content on this
// platform. Unknown platforms and content-type mismatches route to skip,
// so a typo can never escalate automation.
func Route(contentType, platform string) (models.Tier, models.DistributionActionType) {
	policy, ok := platformPolicies[platform]
	if !ok {
		return 0, models.ActionSkipped
	}

	for _, ct := range policy.ContentTypes {
		if ct == contentType {
			return policy.Tier, policy.Action
		}
	}
	return policy.Tier, models.ActionSkipped
}

// Platforms returns every platform registered at the given tier.
func Platforms(tier models.Tier) []string {
	var out []string
	for name, p := range platformPolicies {
		if p.Tier == tier {
			out = append(out, name)
		}
	}
	return out
}

var tierNames = map[models.Tier]string{
	models.TierAutoSafe:    "auto-safe",
	models.TierSemiAuto:    "semi-auto",
	models.TierApproval:    "approval-required",
	models.TierMonitorOnly: "monitor-only",
}

func TierName(t models.Tier) string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}
