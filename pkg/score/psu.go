package score

import (
	"github.com/mchmarny/partscore/pkg/field"
	"github.com/mchmarny/partscore/pkg/record"
)

const (
	psuDefaultPrice = 200

	psuWattageDivisor = 20.0
	psuWattageCap     = 30.0
	psuValueBase      = 30.0
	psuValueDivisor   = 30.0
)

var (
	// 80 PLUS certifications, best first; the bare "80+" only matches when
	// no metal is named.
	psuEfficiencyTiers = field.TierTable{
		{Pattern: "Titanium", Points: 25},
		{Pattern: "Platinum", Points: 20},
		{Pattern: "Gold", Points: 15},
		{Pattern: "Silver", Points: 10},
		{Pattern: "Bronze", Points: 5},
		{Pattern: "80+", Points: 3},
	}

	psuModularTiers = field.TierTable{
		{Pattern: "Full", Points: 15},
		{Pattern: "Semi", Points: 10},
	}
)

func scorePSU(r *record.Record) Breakdown {
	rd := newReader(PSU, r)

	wattage, _ := rd.unit("wattage", "W")
	price := rd.price(psuDefaultPrice)

	rd.add("wattage", capAt(wattage/psuWattageDivisor, psuWattageCap))
	rd.add("efficiency", rd.tier("efficiency_rating", psuEfficiencyTiers, 0))
	rd.add("modularity", rd.tier("modular", psuModularTiers, 0))
	rd.add("value", floorZero(psuValueBase-price/psuValueDivisor))

	return rd.breakdown()
}
