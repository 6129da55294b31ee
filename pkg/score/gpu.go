package score

import (
	"math"

	"github.com/mchmarny/partscore/pkg/field"
	"github.com/mchmarny/partscore/pkg/record"
)

const (
	gpuDefaultPrice = 2000

	gpuMemoryPoints  = 2.0
	gpuMemoryCap     = 30.0
	gpuClockDivisor  = 100.0
	gpuCoreClockCap  = 10.0
	gpuBoostClockCap = 15.0
	gpuChipsetOther  = 5.0
	gpuFanPoints     = 5.0
	gpuValueBase     = 20.0
	gpuValueDivisor  = 150.0
)

// gpuChipsetTiers ranks GeForce generations by model number.
var gpuChipsetTiers = field.TierTable{
	{Pattern: "5090", Points: 25},
	{Pattern: "4090", Points: 25},
	{Pattern: "5080", Points: 20},
	{Pattern: "4080", Points: 20},
	{Pattern: "3090", Points: 20},
	{Pattern: "5070", Points: 15},
	{Pattern: "4070", Points: 15},
	{Pattern: "3080", Points: 15},
	{Pattern: "5060", Points: 10},
	{Pattern: "4060", Points: 10},
	{Pattern: "3070", Points: 10},
}

func scoreGPU(r *record.Record) Breakdown {
	rd := newReader(GPU, r)

	memory, _ := rd.leading("memory")
	coreClock, _ := rd.unit("core_clock", "MHz")
	boostClock, _ := rd.unit("boost_clock", "MHz")
	fans, _ := rd.leading("cooling")
	price := rd.price(gpuDefaultPrice)

	rd.add("memory", capAt(memory*gpuMemoryPoints, gpuMemoryCap))
	rd.add("core_clock", capAt(coreClock/gpuClockDivisor, gpuCoreClockCap))
	rd.add("boost_clock", capAt(boostClock/gpuClockDivisor, gpuBoostClockCap))
	rd.add("chipset", rd.tier("chipset", gpuChipsetTiers, gpuChipsetOther))
	// no cap of its own, the final clamp bounds it
	rd.add("cooling", math.Trunc(fans)*gpuFanPoints)
	rd.add("value", floorZero(gpuValueBase-price/gpuValueDivisor))

	return rd.breakdown()
}
