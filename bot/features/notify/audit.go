package notify

import (
	"context"
	"slices"

	"absbot/models"
	"absbot/registry"

	log "github.com/sirupsen/logrus"
)

// AuditReport summarises one pass over every binding
type AuditReport struct {
	Checked     int
	Stale       []models.NotificationBinding
	Unreachable []models.GuildID // guilds whose channels could not be listed
}

// Audit checks every binding against the guild's current channels and logs
// the ones pointing at a channel that no longer exists. Bindings are only
// reported, never removed.
func (f *Feature) Audit(ctx context.Context) (AuditReport, error) {
	var report AuditReport

	bindings, err := registry.List(ctx, f.registry)
	if err != nil {
		return report, err
	}

	for _, b := range bindings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		entry := log.WithFields(log.Fields{
			"event":      "binding_audit",
			"guild_id":   b.GuildID.String(),
			"channel_id": b.ChannelID.String(),
		})

		listCtx, cancel := f.withCallTimeout(ctx)
		channels, err := f.platform.GuildChannels(listCtx, b.GuildID)
		cancel()
		if err != nil {
			entry.WithError(err).Warn("Audit could not list guild channels")
			report.Unreachable = append(report.Unreachable, b.GuildID)
			continue
		}

		if !slices.Contains(channels, b.ChannelID) {
			entry.Warn("Notification channel binding is stale")
			report.Stale = append(report.Stale, b)
		}
	}

	log.WithFields(log.Fields{
		"checked":     report.Checked,
		"stale":       len(report.Stale),
		"unreachable": len(report.Unreachable),
	}).Info("Binding audit finished")

	return report, nil
}
