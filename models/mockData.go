package models

import "bitbucket.org/mmdatafocus/whisky_backend/utils"

// DemoWhiskies is the dataset served while the database is unreachable,
// and the seed data of cmd/init-db.
func DemoWhiskies() []*Whisky {
	now := nowFunc()
	s := utils.NewString
	return []*Whisky{
		{
			ID:           1,
			Name:         s("Glenmorangie The Original"),
			Price:        s("$45.99"),
			Url:          s("https://example.com/glenmorangie-original"),
			ImageUrl:     s("https://via.placeholder.com/300x400?text=Glenmorangie"),
			Volume:       s("700ml"),
			Abv:          s("40%"),
			Description:  s("A light, delicate and elegant single malt Scotch whisky with a fresh citrus character."),
			Distillery:   s("Glenmorangie"),
			Region:       s("Highlands"),
			Age:          s("10 years"),
			CaskType:     s("ex-Bourbon"),
			TastingNotes: s("Citrus, floral, vanilla"),
			Source:       s("distillery"),
			Month:        s("January"),
			ScrapedAt:    now,
		},
		{
			ID:           2,
			Name:         s("Macallan 12 Year Old"),
			Price:        s("$89.99"),
			Url:          s("https://example.com/macallan-12"),
			ImageUrl:     s("https://via.placeholder.com/300x400?text=Macallan"),
			Volume:       s("700ml"),
			Abv:          s("43%"),
			Description:  s("Rich and golden with a complex character reflecting years of maturation in sherry oak."),
			Distillery:   s("Macallan"),
			Region:       s("Speyside"),
			Age:          s("12 years"),
			CaskType:     s("Sherry Oak"),
			TastingNotes: s("Sherry, spice, oak"),
			Source:       s("distributor"),
			Month:        s("January"),
			ScrapedAt:    now,
		},
		{
			ID:           3,
			Name:         s("Dalwhinnie Winter's Gold"),
			Price:        s("$39.99"),
			Url:          s("https://example.com/dalwhinnie-winters-gold"),
			ImageUrl:     s("https://via.placeholder.com/300x400?text=Dalwhinnie"),
			Volume:       s("700ml"),
			Abv:          s("43%"),
			Description:  s("A honey-coloured whisky with a rich, smooth and warming character."),
			Distillery:   s("Dalwhinnie"),
			Region:       s("Highlands"),
			Age:          s("15 years"),
			CaskType:     s("European oak"),
			TastingNotes: s("Honey, heather, warm spice"),
			Source:       s("retailer"),
			Month:        s("January"),
			ScrapedAt:    now,
		},
		{
			ID:           4,
			Name:         s("Oban 14 Year Old"),
			Price:        s("$64.99"),
			Url:          s("https://example.com/oban-14"),
			ImageUrl:     s("https://via.placeholder.com/300x400?text=Oban"),
			Volume:       s("700ml"),
			Abv:          s("43%"),
			Description:  s("A gentle, complex and fully rounded malt from the remote west coast of Scotland."),
			Distillery:   s("Oban"),
			Region:       s("West Highlands"),
			Age:          s("14 years"),
			CaskType:     s("ex-Bourbon"),
			TastingNotes: s("Sea salt, pepper, smoke"),
			Source:       s("distillery"),
			Month:        s("January"),
			ScrapedAt:    now,
		},
		{
			ID:           5,
			Name:         s("Laphroaig 10 Year Old"),
			Price:        s("$49.99"),
			Url:          s("https://example.com/laphroaig-10"),
			ImageUrl:     s("https://via.placeholder.com/300x400?text=Laphroaig"),
			Volume:       s("700ml"),
			Abv:          s("40%"),
			Description:  s("A full-bodied, complex, heavily peated Islay malt with a characterful peppery finish."),
			Distillery:   s("Laphroaig"),
			Region:       s("Islay"),
			Age:          s("10 years"),
			CaskType:     s("ex-Bourbon"),
			TastingNotes: s("Peat, smoke, sea salt"),
			Source:       s("retailer"),
			Month:        s("January"),
			ScrapedAt:    now,
		},
	}
}
