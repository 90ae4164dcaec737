package model

import "time"

type Outcome string

const (
	OutcomeFired      Outcome = "fired"
	OutcomeSuppressed Outcome = "suppressed"
)

// Firing records one permitted execution of the paced action.
type Firing struct {
	Seq            uint64        `json:"seq"`
	FiredAt        time.Time     `json:"fired_at"`
	Source         string        `json:"source,omitempty"`
	SincePrevious  time.Duration `json:"since_previous"`
	ActionDuration time.Duration `json:"action_duration"`
	Suppressed     int           `json:"suppressed"`
	ActionError    string        `json:"action_error,omitempty"`
}

// TriggerResult is what a trigger attempt produced: a firing, or the wait
// remaining until the next one can fire.
type TriggerResult struct {
	Outcome   Outcome       `json:"outcome"`
	Firing    *Firing       `json:"firing,omitempty"`
	Remaining time.Duration `json:"remaining,omitempty"`
}
