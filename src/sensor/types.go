package sensor

// Reading is one timestamped sample from the climate station. The service
// returns readings ordered by Time ascending; that ordering is a service
// contract and is not re-checked or re-sorted here.
type Reading struct {
	// Time is the sample timestamp in epoch milliseconds.
	Time int64 `json:"time"`
	// Temperature in degrees Celsius.
	Temperature float64 `json:"temperature"`
	// Humidity in percent relative humidity (0-100).
	Humidity float64 `json:"humidity"`
	// CO2 in ppm. Nil when the station has no CO2 channel; stations report
	// the field only when a sensor is attached.
	CO2 *float64 `json:"co2,omitempty"`
}

// Outcome is the tagged result of one readings fetch. Exactly one of the two
// arms is populated: a successful fetch carries the ordered readings plus the
// wall-clock time the request took, a failed one carries the message shown to
// the user verbatim.
type Outcome struct {
	Readings  []Reading
	ElapsedMs int64
	// Failure is the error text. Empty means success.
	Failure string
}

// Failed reports whether the fetch settled with an error.
func (o Outcome) Failed() bool { return o.Failure != "" }

// Success builds a successful Outcome.
func Success(readings []Reading, elapsedMs int64) Outcome {
	return Outcome{Readings: readings, ElapsedMs: elapsedMs}
}

// Failed fetches carry only a message; the three underlying causes (transport
// error, non-200 status, undecodable body) are deliberately not distinguished
// past this boundary.
func Failure(message string) Outcome {
	return Outcome{Failure: message}
}
