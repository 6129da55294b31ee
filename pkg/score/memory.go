package score

import (
	"fmt"
	"strings"

	"github.com/mchmarny/partscore/pkg/field"
	"github.com/mchmarny/partscore/pkg/record"
)

const (
	memoryDefaultPrice = 200

	memorySpeedDivisor    = 200.0
	memorySpeedCap        = 30.0
	memoryCapacityDivisor = 4.0
	memoryCapacityCap     = 25.0
	memoryLatencyBase     = 15.0
	memorySpreaderPoints  = 10.0
	memoryValueBase       = 20.0
	memoryValuePerGB      = 2.0
)

func scoreMemory(r *record.Record) Breakdown {
	rd := newReader(Memory, r)

	speed, _ := rd.read("speed", memorySpeed)
	capacity, _ := rd.read("modules", totalCapacity)
	price := rd.price(memoryDefaultPrice)

	rd.add("speed", capAt(speed/memorySpeedDivisor, memorySpeedCap))
	rd.add("capacity", capAt(capacity/memoryCapacityDivisor, memoryCapacityCap))

	// first word latency, lower is better
	var latency float64
	if ns, ok := rd.unit("first_word_latency", "ns"); ok {
		latency = floorZero(memoryLatencyBase - ns)
	}
	rd.add("latency", latency)

	var spreader float64
	if rd.flag("heat_spreader") {
		spreader = memorySpreaderPoints
	}
	rd.add("heat_spreader", spreader)

	// price per GB; a kit of unknown size earns no value points
	var value float64
	if capacity > 0 {
		value = floorZero(memoryValueBase - price/capacity*memoryValuePerGB)
	}
	rd.add("value", value)

	return rd.breakdown()
}

// memorySpeed reads the effective transfer rate. "DDR5-6000" is the number
// after the dash; anything else must be a bare number.
func memorySpeed(v field.Value) (float64, error) {
	s := v.String()
	if v.Kind() != field.KindText || !strings.Contains(s, "DDR") {
		return field.Float(v)
	}

	_, rate, ok := strings.Cut(s, "-")
	if !ok {
		return 0, fmt.Errorf("%w: %q has no speed after the DDR generation", field.ErrMalformed, s)
	}
	return field.Leading(field.Text(rate))
}

// totalCapacity multiplies out a "2 x 16GB" module kit.
func totalCapacity(v field.Value) (float64, error) {
	count, size, err := field.CountSize(v, "GB")
	if err != nil {
		return 0, err
	}
	return float64(count) * size, nil
}
