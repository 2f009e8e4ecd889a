package logistics

// Incident is a canned random event and the damage it does.
type Incident struct {
	Message   string
	Severity  string
	Supplies  float64
	Fatigue   float64
	Integrity float64
}

// Incidents is the table random events are drawn from.
var Incidents = []Incident{
	{Message: "Uneven terrain caused vehicle damage.", Severity: "warning", Integrity: 5},
	{Message: "Wildlife encounter delayed progress.", Severity: "warning", Supplies: 2, Fatigue: 5},
	{Message: "Navigation error corrected.", Severity: "info", Supplies: 1},
	{Message: "Severe weather alert!", Severity: "critical", Integrity: 8, Fatigue: 8},
}

// RandomIncident picks an entry from Incidents.
func (m *Model) RandomIncident() Incident {
	return Incidents[m.rng.Intn(len(Incidents))]
}
