package domain

import "github.com/shopspring/decimal"

// OfferKind controls which flow an offer button enters. Generic offers
// go through the submission wizard; the two special offers show a fixed
// instruction sequence instead and never enter the wizard.
type OfferKind string

const (
	OfferGeneric OfferKind = "generic"
	OfferSpecial OfferKind = "special"
)

// Offer is one entry of the task catalog.
type Offer struct {
	// Label is the exact button text and the stable identity of the
	// offer in callback tokens.
	Label string
	// Name is the human bank name used inside instruction texts.
	Name string
	// Link is the referral link for special offers.
	Link string
	Kind OfferKind
	// Instruction selects the instruction template for special offers.
	Instruction string
	Payout      decimal.Decimal
}

const (
	OfferLabelTBank = "💳 Карта Т-Банк 3ООО Р"
	OfferLabelAlfa  = "💳 Карта Альфа Банк ~~2000 Р~~ 2500 Р"
	OfferLabelMTS   = "💳 Карта МТС 3ОО Р"
)

// Catalog is the fixed offer catalog. Order matters: it is the button
// order shown to users.
var Catalog = []Offer{
	{
		Label:       OfferLabelTBank,
		Name:        "Т-Банк",
		Link:        "https://tbank.ru/baf/1BgRcSNOGAp",
		Kind:        OfferSpecial,
		Instruction: "tbank",
		Payout:      decimal.NewFromInt(3000),
	},
	{
		Label:       OfferLabelAlfa,
		Name:        "Альфа-Банк",
		Link:        "https://alfa.me/aw4D3D",
		Kind:        OfferSpecial,
		Instruction: "alpha",
		Payout:      decimal.NewFromInt(2500),
	},
	{
		Label:  OfferLabelMTS,
		Name:   "МТС Банк",
		Kind:   OfferGeneric,
		Payout: decimal.NewFromInt(300),
	},
}

// offersByAge maps an age bracket to the catalog labels it may see.
var offersByAge = map[AgeBracket][]string{
	Age14Plus: {OfferLabelTBank, OfferLabelAlfa},
	Age18Plus: {OfferLabelTBank, OfferLabelMTS, OfferLabelAlfa},
}

// OfferByLabel looks an offer up by its button label.
func OfferByLabel(label string) (Offer, bool) {
	for _, o := range Catalog {
		if o.Label == label {
			return o, true
		}
	}
	return Offer{}, false
}

// OffersForAge returns the offers visible to the given age bracket, in
// display order.
func OffersForAge(age AgeBracket) []Offer {
	labels := offersByAge[age]
	offers := make([]Offer, 0, len(labels))
	for _, l := range labels {
		if o, ok := OfferByLabel(l); ok {
			offers = append(offers, o)
		}
	}
	return offers
}

// AllOffers returns every distinct catalog offer.
func AllOffers() []Offer {
	return Catalog
}
