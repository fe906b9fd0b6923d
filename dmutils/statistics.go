package dmutils

import "math"

// Statistics summarizes the slot population of a container at a moment in
// time. SlotCount is the number of materialized slots, and the three state
// counts partition it.
type Statistics struct {
	SlotCount     int
	OccupiedCount int
	ReservedCount int
	VacantCount   int
}

func (s *Statistics) Clear() {
	s.SlotCount = 0
	s.OccupiedCount = 0
	s.ReservedCount = 0
	s.VacantCount = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.SlotCount += other.SlotCount
	s.OccupiedCount += other.OccupiedCount
	s.ReservedCount += other.ReservedCount
	s.VacantCount += other.VacantCount
}

// DetailedStatistics extends Statistics with the generation spread across
// all materialized slots, which indicates how heavily slots have been recycled.
type DetailedStatistics struct {
	Statistics
	GenerationMin uint32
	GenerationMax uint32
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.GenerationMin = math.MaxUint32
	s.GenerationMax = 0
}

func (s *DetailedStatistics) AddSlotGeneration(generation uint32) {
	if generation < s.GenerationMin {
		s.GenerationMin = generation
	}

	if generation > s.GenerationMax {
		s.GenerationMax = generation
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)

	if other.GenerationMin < s.GenerationMin {
		s.GenerationMin = other.GenerationMin
	}

	if other.GenerationMax > s.GenerationMax {
		s.GenerationMax = other.GenerationMax
	}
}
