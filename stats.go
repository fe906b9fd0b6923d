package deferredmap

import (
	"github.com/ShaoG-R/deferred-map/dmutils"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// AddStatistics sums this map's slot population into the statistics
// currently present in the provided dmutils.Statistics object.
func (m *Map[T]) AddStatistics(stats *dmutils.Statistics) {
	stats.SlotCount += len(m.slots)

	for i := range m.slots {
		switch m.slots[i].stateBits() {
		case stateOccupied:
			stats.OccupiedCount++
		case stateReserved:
			stats.ReservedCount++
		default:
			stats.VacantCount++
		}
	}
}

// AddDetailedStatistics sums this map's slot population and generation
// spread into the statistics currently present in the provided
// dmutils.DetailedStatistics object.
func (m *Map[T]) AddDetailedStatistics(stats *dmutils.DetailedStatistics) {
	m.AddStatistics(&stats.Statistics)

	for i := range m.slots {
		stats.AddSlotGeneration(m.slots[i].generation())
	}
}

// BuildStatsString writes a JSON description of the map's slot population to
// the provided writer: summary counts followed by a per-slot detail array.
// This walks every slot and should only be used for diagnostics.
func (m *Map[T]) BuildStatsString(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	var stats dmutils.DetailedStatistics
	stats.Clear()
	m.AddDetailedStatistics(&stats)

	obj.Name("TotalSlots").Int(stats.SlotCount)
	obj.Name("Capacity").Int(m.Cap())
	obj.Name("Occupied").Int(stats.OccupiedCount)
	obj.Name("Reserved").Int(stats.ReservedCount)
	obj.Name("Vacant").Int(stats.VacantCount)

	if stats.SlotCount > 0 {
		obj.Name("GenerationMin").Int(int(stats.GenerationMin))
		obj.Name("GenerationMax").Int(int(stats.GenerationMax))
	}

	m.slotsJsonData(obj)
}

func (m *Map[T]) slotsJsonData(json jwriter.ObjectState) {
	arrayState := json.Name("Slots").Array()
	defer arrayState.End()

	for i := range m.slots {
		s := &m.slots[i]

		slotObj := arrayState.Object()
		slotObj.Name("Index").Int(i)
		slotObj.Name("State").String(stateName(s.stateBits()))
		slotObj.Name("Generation").Int(int(s.generation()))
		slotObj.End()
	}
}
