package models

// PriorityBand is the display and sort bucket for task_priority
type PriorityBand string

const (
	PriorityHigh   PriorityBand = "High"
	PriorityMedium PriorityBand = "Medium"
	PriorityLow    PriorityBand = "Low"
	PriorityNone   PriorityBand = "None"
)

// DefaultPriority is applied to new tasks without a priority (Medium)
const DefaultPriority = 2

// DefaultEnergyLevel is applied to new tasks without an energy level
const DefaultEnergyLevel = 50

// PriorityBandOf maps 1, 2, 3 to High, Medium, Low and anything else to None
func PriorityBandOf(priority int) PriorityBand {
	switch priority {
	case 1:
		return PriorityHigh
	case 2:
		return PriorityMedium
	case 3:
		return PriorityLow
	default:
		return PriorityNone
	}
}

// PriorityColor is the indicator colour for a band
func PriorityColor(band PriorityBand) string {
	switch band {
	case PriorityHigh:
		return "#FF5722"
	case PriorityMedium:
		return "#FFC107"
	case PriorityLow:
		return "#4CAF50"
	default:
		return "#888888"
	}
}

// Rank orders bands for sorting, most urgent first
func (b PriorityBand) Rank() int {
	switch b {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

func (b PriorityBand) String() string { return string(b) }

// Band returns the task's priority band
func (t Task) Band() PriorityBand {
	return PriorityBandOf(t.TaskPriority)
}
