package domain

import (
	"fmt"
	"strings"
)

// IntentKind is the closed set of button intents the engine accepts.
type IntentKind string

const (
	IntentProceed      IntentKind = "proceed"
	IntentSelectAge    IntentKind = "select_age"
	IntentSwitchAge    IntentKind = "switch_age"
	IntentSelectOffer  IntentKind = "select_offer"
	IntentStartTask    IntentKind = "start_task"
	IntentCardOrdered  IntentKind = "card_ordered"
	IntentRefuseTask   IntentKind = "refuse_task"
	IntentBackToOffers IntentKind = "back_to_offers"
	IntentAsk          IntentKind = "ask"
	IntentStartSupport IntentKind = "start_support"
	IntentCancelAsk    IntentKind = "cancel_support"
	IntentStartReport  IntentKind = "start_report"
	IntentCancelReport IntentKind = "cancel_report"
	IntentGoMain       IntentKind = "go_main"
	IntentMenuProfile  IntentKind = "menu_profile"
	IntentMenuTasks    IntentKind = "menu_tasks"
	IntentMenuReport   IntentKind = "menu_report_card"
	IntentMenuReferral IntentKind = "menu_referral"
	IntentMenuSupport  IntentKind = "menu_support"
	IntentMenuReviews  IntentKind = "menu_reviews"
	IntentEmoji        IntentKind = "emoji"
	IntentOtherTasks   IntentKind = "other_tasks"

	// IntentExplain is only reachable through the reply-keyboard
	// proceed label, never through a callback token.
	IntentExplain IntentKind = "explain"
)

// Intent is a parsed button press. Raw callback tokens are parsed into
// an Intent at the transport boundary; the engine never sees raw
// strings.
type Intent struct {
	Kind  IntentKind
	Offer string
	Age   AgeBracket
}

// Callback tokens as they appear in inline keyboard callback data.
// Parameterized tokens are colon-delimited: "bank::<label>".
const (
	TokenNext          = "next_submit"
	TokenStartEarn     = "start_earn"
	TokenAge14         = "age_14"
	TokenAge18         = "age_18"
	TokenBank          = "bank"
	TokenStartTask     = "start_task"
	TokenSwitchAge     = "switch_age"
	TokenCardOrdered   = "card_ordered"
	TokenRefuseTask    = "refuse_task"
	TokenBackToBanks   = "back_to_banks"
	TokenAsk           = "ask"
	TokenStartSupport  = "start_support"
	TokenCancelSupport = "cancel_support"
	TokenStartReport   = "start_report_message"
	TokenCancelReport  = "cancel_report"
	TokenGoMain        = "go_main"
	TokenMenuProfile   = "menu_profile"
	TokenMenuTasks     = "menu_tasks"
	TokenMenuReport    = "menu_report_card"
	TokenMenuReferral  = "menu_referral"
	TokenMenuSupport   = "menu_support"
	TokenMenuReviews   = "menu_reviews"
	TokenEmoji         = "emoji"
	TokenOtherTasks    = "other_tasks"
)

// ParseIntent parses a raw callback token into an Intent. Unknown tokens
// are rejected with ErrUnknownIntent.
func ParseIntent(token string) (Intent, error) {
	if head, arg, ok := strings.Cut(token, "::"); ok {
		switch head {
		case TokenBank:
			return Intent{Kind: IntentSelectOffer, Offer: arg}, nil
		case TokenStartTask:
			return Intent{Kind: IntentStartTask, Offer: arg}, nil
		case TokenSwitchAge:
			age, err := ParseAge(arg)
			if err != nil {
				return Intent{}, err
			}
			return Intent{Kind: IntentSwitchAge, Age: age}, nil
		}
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, token)
	}

	switch token {
	case TokenNext:
		return Intent{Kind: IntentExplain}, nil
	case TokenStartEarn:
		return Intent{Kind: IntentProceed}, nil
	case TokenAge14:
		return Intent{Kind: IntentSelectAge, Age: Age14Plus}, nil
	case TokenAge18:
		return Intent{Kind: IntentSelectAge, Age: Age18Plus}, nil
	case TokenCardOrdered:
		return Intent{Kind: IntentCardOrdered}, nil
	case TokenRefuseTask:
		return Intent{Kind: IntentRefuseTask}, nil
	case TokenBackToBanks:
		return Intent{Kind: IntentBackToOffers}, nil
	case TokenAsk:
		return Intent{Kind: IntentAsk}, nil
	case TokenStartSupport:
		return Intent{Kind: IntentStartSupport}, nil
	case TokenCancelSupport:
		return Intent{Kind: IntentCancelAsk}, nil
	case TokenStartReport:
		return Intent{Kind: IntentStartReport}, nil
	case TokenCancelReport:
		return Intent{Kind: IntentCancelReport}, nil
	case TokenGoMain:
		return Intent{Kind: IntentGoMain}, nil
	case TokenMenuProfile:
		return Intent{Kind: IntentMenuProfile}, nil
	case TokenMenuTasks:
		return Intent{Kind: IntentMenuTasks}, nil
	case TokenMenuReport:
		return Intent{Kind: IntentMenuReport}, nil
	case TokenMenuReferral:
		return Intent{Kind: IntentMenuReferral}, nil
	case TokenMenuSupport:
		return Intent{Kind: IntentMenuSupport}, nil
	case TokenMenuReviews:
		return Intent{Kind: IntentMenuReviews}, nil
	case TokenEmoji:
		return Intent{Kind: IntentEmoji}, nil
	case TokenOtherTasks:
		return Intent{Kind: IntentOtherTasks}, nil
	}
	return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, token)
}

// ParseAge parses an age bracket label ("14+" or "18+").
func ParseAge(s string) (AgeBracket, error) {
	switch AgeBracket(s) {
	case Age14Plus:
		return Age14Plus, nil
	case Age18Plus:
		return Age18Plus, nil
	}
	return "", fmt.Errorf("%w: bad age %q", ErrUnknownIntent, s)
}

// CallbackOffer builds the callback token for an offer button.
func CallbackOffer(label string) string { return TokenBank + "::" + label }

// CallbackStartTask builds the callback token for a special offer's
// "start" button.
func CallbackStartTask(label string) string { return TokenStartTask + "::" + label }

// CallbackSwitchAge builds the callback token for the switch-age row.
func CallbackSwitchAge(age AgeBracket) string { return TokenSwitchAge + "::" + string(age) }
