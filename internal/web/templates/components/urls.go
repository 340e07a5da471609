package components

import (
	"net/url"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/services/study"
)

// Element ids the fragments are swapped into
const (
	PlayersPanelID = "relay-players"
	PlayerTipID    = "tour-player-tip"
	RelayManagerID = "relay-manager"
	CommentsID     = "study-comments"
	CheckoutID     = "checkout"
)

// PlayersURL is the players tab of a tour
func PlayersURL(tourID model.TourID) string {
	return "/broadcast/" + url.PathEscape(string(tourID)) + "/players"
}

// PlayerURL is the address that switches to the players tab and shows key
func PlayerURL(tourID model.TourID, key model.PlayerKey) string {
	return PlayersURL(tourID) + "/" + url.PathEscape(string(key))
}

// PlayerTipURL is the tooltip fragment of a player
func PlayerTipURL(tourID model.TourID, key model.PlayerKey) string {
	return PlayerURL(tourID, key) + "/tip"
}

// GameURL is the board page of a game in a round
func GameURL(g model.PlayerGame) string {
	return "/broadcast/-/-/" + url.PathEscape(string(g.Round)) + "/" + url.PathEscape(string(g.Chapter))
}

// FideURL redirects to a player's FIDE profile
func FideURL(fideID int) string {
	return "/fide/" + url.PathEscape(formatInt(fideID)) + "/redirect"
}

// FederationURL lists the players of a federation
func FederationURL(fed *model.Federation) string {
	return "/fide/federation/" + url.PathEscape(fed.Name)
}

// RoundBase is the manager address prefix of a round
func RoundBase(roundID model.RoundID) string {
	return "/broadcast/round/" + url.PathEscape(string(roundID))
}

// StudyURL is the study page of a broadcast round
func StudyURL(studyID string) string {
	return "/study/" + url.PathEscape(studyID)
}

// UserURL is the profile page of a user
func UserURL(userID string) string {
	return "/@/" + url.PathEscape(userID)
}

// CommentsURL is the thread address of a node
func CommentsURL(studyID string, chapterID model.ChapterID, path string) string {
	u := StudyURL(studyID) + "/" + url.PathEscape(string(chapterID)) + "/comments"
	if path != "" {
		u += "?" + url.Values{"path": {path}}.Encode()
	}
	return u
}

// DeleteCommentURL is the delete action of one comment
func DeleteCommentURL(t *study.Thread, commentID string) string {
	u := StudyURL(t.StudyID) + "/" + url.PathEscape(string(t.ChapterID)) +
		"/comments/" + url.PathEscape(commentID) + "/delete"
	if t.Path != "" {
		u += "?" + url.Values{"path": {t.Path}}.Encode()
	}
	return u
}

// CheckoutURL starts a checkout with one provider
func CheckoutURL(kind checkout.Kind) string {
	return checkout.PatronPath + "/checkout/" + string(kind)
}
