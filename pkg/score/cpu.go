package score

import "github.com/mchmarny/partscore/pkg/record"

const (
	cpuDefaultPrice = 1000

	cpuCorePoints      = 5.0
	cpuCoreCap         = 40.0
	cpuThreadPoints    = 2.5
	cpuThreadCap       = 10.0
	cpuBaseClockPoints = 2.0
	cpuBaseClockCap    = 10.0
	cpuBoostPoints     = 3.0
	cpuBoostCap        = 15.0
	cpuCacheDivisor    = 2.0
	cpuCacheCap        = 10.0
	cpuValueBase       = 25.0
	cpuValueDivisor    = 40.0
)

func scoreCPU(r *record.Record) Breakdown {
	rd := newReader(CPU, r)

	cores, _ := rd.count("core_count")
	threads, hasThreads := rd.count("thread_count")
	base, _ := rd.unit("performance_core_clock", "GHz")
	boost, _ := rd.unit("performance_core_boost_clock", "GHz")
	cache, _ := rd.unit("l3_cache", "MB")
	price := rd.price(cpuDefaultPrice)

	rd.add("core", capAt(cores*cpuCorePoints, cpuCoreCap))

	// SMT bonus: only extra hardware threads count.
	var smt float64
	if hasThreads {
		smt = floorZero(capAt((threads-cores)*cpuThreadPoints, cpuThreadCap))
	}
	rd.add("thread", smt)

	rd.add("base_clock", capAt(base*cpuBaseClockPoints, cpuBaseClockCap))
	rd.add("boost_clock", capAt(boost*cpuBoostPoints, cpuBoostCap))
	rd.add("cache", capAt(cache/cpuCacheDivisor, cpuCacheCap))
	rd.add("value", floorZero(cpuValueBase-price/cpuValueDivisor))

	return rd.breakdown()
}
