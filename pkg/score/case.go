package score

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mchmarny/partscore/pkg/field"
	"github.com/mchmarny/partscore/pkg/record"
)

const (
	caseDefaultPrice = 200

	caseFormFactorPoints = 5.0
	caseFormFactorCap    = 15.0
	caseGlassPoints      = 10.0
	caseShroudPoints     = 10.0
	caseGPULengthDivisor = 30.0
	caseGPULengthCap     = 10.0
	caseDriveBayPoints   = 2.0
	caseDriveBayCap      = 15.0
	caseValueBase        = 25.0
	caseValueDivisor     = 20.0
)

var caseUSBTiers = field.TierTable{
	{Pattern: "USB 3.2 Gen 2 Type-C", Points: 15},
	{Pattern: "USB 3.2 Gen 1", Points: 10},
}

func scoreCase(r *record.Record) Breakdown {
	rd := newReader(Case, r)

	formFactors, _ := rd.lineCount("motherboard_form_factor")
	gpuLength, _ := rd.leading("maximum_video_card_length")
	bays, _ := rd.read("drive_bays", driveBayCount)
	price := rd.price(caseDefaultPrice)

	rd.add("form_factor", capAt(float64(formFactors)*caseFormFactorPoints, caseFormFactorCap))

	var glass float64
	if rd.contains("side_panel", "Glass") {
		glass = caseGlassPoints
	}
	rd.add("glass_panel", glass)

	var shroud float64
	if rd.flag("power_supply_shroud") {
		shroud = caseShroudPoints
	}
	rd.add("shroud", shroud)

	rd.add("usb", rd.tier("front_panel_usb", caseUSBTiers, 0))
	rd.add("gpu_length", capAt(gpuLength/caseGPULengthDivisor, caseGPULengthCap))
	rd.add("drive_bays", capAt(bays*caseDriveBayPoints, caseDriveBayCap))
	rd.add("value", floorZero(caseValueBase-price/caseValueDivisor))

	return rd.breakdown()
}

// driveBayCount sums the counts of "N x <bay type>" lines. Lines without an
// "x" are not bay entries and are skipped.
func driveBayCount(v field.Value) (float64, error) {
	lines, err := field.Lines(v)
	if err != nil {
		return 0, err
	}

	var total int
	for _, line := range lines {
		count, _, ok := strings.Cut(line, "x")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return 0, fmt.Errorf("%w: drive bay entry %q", field.ErrMalformed, line)
		}
		total += n
	}

	return float64(total), nil
}
