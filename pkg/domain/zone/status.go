package zone

// Cumulative volume thresholds, in cubic centimeters.
const (
	YellowThresholdCm3 = 10000
	RedThresholdCm3    = 30000
)

// Status represents the discrete severity status of a zone.
type Status string

// Zone statuses.
const (
	StatusGreen  Status = "Green"
	StatusYellow Status = "Yellow"
	StatusRed    Status = "Red"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusGreen, StatusYellow, StatusRed:
		return true
	default:
		return false
	}
}

// Classify maps a cumulative waste volume to a severity status.
// Classify is a total function: any non-negative sum has a status, and a
// zone with no recorded results classifies as Green (sum 0).
func Classify(sumCm3 float64) Status {
	switch {
	case sumCm3 >= RedThresholdCm3:
		return StatusRed
	case sumCm3 >= YellowThresholdCm3:
		return StatusYellow
	default:
		return StatusGreen
	}
}
