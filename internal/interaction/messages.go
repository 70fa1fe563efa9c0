package interaction

import (
	"fmt"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/notify"
)

// Toast titles.
const (
	TitleCopied         = "Copied to clipboard!"
	TitleCopyFailed     = "Failed to copy"
	TitleLiked          = "Liked!"
	TitleUnliked        = "Removed from liked prompts"
	TitleBookmarked     = "Bookmarked!"
	TitleUnbookmarked   = "Removed from bookmarks"
	TitleSignInRequired = "Sign in required"
	TitleQuotaReached   = "Daily copy limit reached"
	TitleSomethingWrong = "Something went wrong"
)

// notificationFor builds the single toast that accompanies an outcome.
func notificationFor(to notify.Audience, out domain.InteractionOutcome, promptTitle string) notify.Notification {
	switch out.Kind {
	case domain.OutcomeExecuted:
		switch out.Action {
		case domain.ActionCopy:
			desc := "Prompt copied successfully."
			if promptTitle != "" {
				desc = fmt.Sprintf("%q has been copied.", promptTitle)
			}
			return notify.Info(to, TitleCopied, desc)
		case domain.ActionLike:
			if out.State == domain.ToggleSet {
				return notify.Info(to, TitleLiked, "Added to your liked prompts.")
			}
			return notify.Info(to, TitleUnliked, "")
		default:
			if out.State == domain.ToggleSet {
				return notify.Info(to, TitleBookmarked, "Added to your bookmarks.")
			}
			return notify.Info(to, TitleUnbookmarked, "Prompt removed from your collection.")
		}

	case domain.OutcomeBlockedNeedsAuth:
		return notify.Info(to, TitleSignInRequired, fmt.Sprintf("Please sign in to %s prompts.", out.Action))

	case domain.OutcomeBlockedQuotaExceeded:
		return notify.Info(to, TitleQuotaReached, "Sign in for unlimited copies.")

	default:
		if out.Reason == domain.ReasonClipboardUnavailable {
			return notify.Error(to, TitleCopyFailed, "Please try copying manually.")
		}
		return notify.Error(to, TitleSomethingWrong, fmt.Sprintf("Failed to %s prompt. Please try again.", out.Action))
	}
}
