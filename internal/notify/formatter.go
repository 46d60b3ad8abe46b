package notify

import (
	"fmt"
	"strconv"
	"time"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/notify/platforms"
)

const (
	colorMinted  = 0xF1C40F
	colorFailed  = 0xED4245
	colorOpened  = 0x57F287
	colorClosed  = 0x99AAB5
	colorCheckin = 0x5865F2

	shortAddrLimit = 10
	defaultFooter  = "dragon-forge"
)

// FormatEvent renders the events worth a webhook message. Other events report false.
func FormatEvent(ev forge.Event) (platforms.Message, bool) {
	msg := platforms.Message{
		Timestamp: eventTimestamp(ev.At),
		Footer:    fmt.Sprintf("%s · seq %d", defaultFooter, ev.Seq),
	}
	switch ev.Type {
	case forge.EventTokenMinted:
		msg.Title = fmt.Sprintf("Dragon #%d forged", ev.TokenID)
		msg.Content = fmt.Sprintf("%s forged dragon #%d", shortAddr(ev.Account), ev.TokenID)
		msg.Description = ev.URI
		msg.URL = ev.URI
		msg.Color = colorMinted
		msg.Fields = []platforms.Field{
			{Name: "Owner", Value: ev.Account.String(), Inline: false},
			{Name: "Token", Value: "#" + strconv.FormatUint(ev.TokenID, 10), Inline: true},
			{Name: "Request", Value: "#" + strconv.FormatUint(ev.SequenceNumber, 10), Inline: true},
		}
	case forge.EventMintFailed:
		msg.Title = fmt.Sprintf("Mint request #%d refunded", ev.SequenceNumber)
		msg.Content = fmt.Sprintf("request #%d for %s was refunded", ev.SequenceNumber, shortAddr(ev.Account))
		msg.Description = "No rarity level had supply left or the request expired; points were returned."
		msg.Color = colorFailed
		msg.Fields = []platforms.Field{
			{Name: "Account", Value: ev.Account.String(), Inline: false},
			{Name: "Request", Value: "#" + strconv.FormatUint(ev.SequenceNumber, 10), Inline: true},
		}
	case forge.EventStakingModeUpdated, forge.EventMintingModeUpdated:
		what := "Staking"
		if ev.Type == forge.EventMintingModeUpdated {
			what = "Minting"
		}
		state, color := "closed", colorClosed
		if ev.Enabled {
			state, color = "open", colorOpened
		}
		msg.Title = fmt.Sprintf("%s is %s", what, state)
		msg.Content = msg.Title
		msg.Color = color
	case forge.EventDailyCheckin:
		msg.Title = "Daily check-in"
		msg.Content = fmt.Sprintf("%s checked in for %d points", shortAddr(ev.Account), ev.Value)
		msg.Color = colorCheckin
		msg.Fields = []platforms.Field{
			{Name: "Bonus", Value: strconv.FormatUint(ev.Value, 10), Inline: true},
		}
	default:
		return platforms.Message{}, false
	}
	return msg, true
}

func shortAddr(a forge.Address) string {
	s := a.String()
	if len(s) <= shortAddrLimit {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

func eventTimestamp(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	return at.UTC().Format(time.RFC3339)
}
