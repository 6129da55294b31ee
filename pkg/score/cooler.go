package score

import "github.com/mchmarny/partscore/pkg/record"

const (
	coolerDefaultPrice = 1000

	coolerRPMDivisor   = 500.0
	coolerRPMCap       = 10.0
	coolerNoiseBase    = 20.0
	coolerSocketPoints = 2.0
	coolerSocketCap    = 20.0
	coolerLiquidPoints = 15.0
	coolerValueBase    = 35.0
	coolerValueDivisor = 10.0
)

func scoreCooler(r *record.Record) Breakdown {
	rd := newReader(Cooler, r)

	rpm, _ := rd.leading("fan_rpm")
	sockets, _ := rd.lineCount("cpu_socket")
	price := rd.price(coolerDefaultPrice)

	rd.add("rpm", capAt(rpm/coolerRPMDivisor, coolerRPMCap))

	// lower is better; a range reads as its lower bound
	var noise float64
	if db, ok := rd.leading("noise_level"); ok {
		noise = floorZero(coolerNoiseBase - db)
	}
	rd.add("noise", noise)

	rd.add("socket", capAt(float64(sockets)*coolerSocketPoints, coolerSocketCap))

	var liquid float64
	if rd.flag("water_cooled") {
		liquid = coolerLiquidPoints
	}
	rd.add("cooling_type", liquid)

	rd.add("value", floorZero(coolerValueBase-price/coolerValueDivisor))

	return rd.breakdown()
}
