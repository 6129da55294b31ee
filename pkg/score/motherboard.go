package score

import (
	"strings"

	"github.com/mchmarny/partscore/pkg/field"
	"github.com/mchmarny/partscore/pkg/record"
)

const (
	motherboardDefaultPrice = 1000

	moboMemoryDivisor   = 16.0
	moboMemoryCap       = 10.0
	moboSlotPoints      = 2.5
	moboSlotCap         = 10.0
	moboFormFactorOther = 5.0
	moboM2Points        = 5.0
	moboM2Cap           = 15.0
	moboWiFiPoints      = 10.0
	moboValueBase       = 20.0
	moboValueDivisor    = 50.0
)

var (
	// exact match on the loader's form factor text
	moboFormFactors = map[string]float64{
		"ATX":       10,
		"Micro ATX": 8,
		"microATX":  8,
		"Mini ITX":  6,
		"miniITX":   6,
	}

	// Z (enthusiast) before B (mainstream) before H (budget).
	moboChipsetTiers = field.TierTable{
		{Pattern: "Z", Points: 20},
		{Pattern: "B", Points: 15},
		{Pattern: "H", Points: 10},
	}
)

func scoreMotherboard(r *record.Record) Breakdown {
	rd := newReader(Motherboard, r)

	memoryMax, _ := rd.unit("memory_max", "GB")
	slots, _ := rd.count("memory_slots")
	price := rd.price(motherboardDefaultPrice)

	rd.add("memory_max", capAt(memoryMax/moboMemoryDivisor, moboMemoryCap))
	rd.add("memory_slots", capAt(slots*moboSlotPoints, moboSlotCap))

	formFactor := moboFormFactorOther
	if p, ok := moboFormFactors[strings.TrimSpace(r.Get("form_factor").String())]; ok {
		formFactor = p
	}
	rd.add("form_factor", formFactor)

	rd.add("m2_slots", capAt(m2SlotCount(rd)*moboM2Points, moboM2Cap))

	var wifi float64
	if rd.contains("wireless_networking", "Wi-Fi") {
		wifi = moboWiFiPoints
	}
	rd.add("wifi", wifi)

	rd.add("chipset", rd.tier("chipset", moboChipsetTiers, 0))
	rd.add("value", floorZero(moboValueBase-price/moboValueDivisor))

	return rd.breakdown()
}

// m2SlotCount reads m2_slots as a list of slot descriptions, one per line.
// A numeric value is already a count.
func m2SlotCount(rd *reader) float64 {
	if rd.rec.Get("m2_slots").Kind() == field.KindNumber {
		n, _ := rd.count("m2_slots")
		return n
	}
	n, _ := rd.lineCount("m2_slots")
	return float64(n)
}
