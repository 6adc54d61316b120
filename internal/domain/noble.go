package domain

import "time"

// Noble is a fixed discount milestone that grants prestige once per user.
type Noble struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Requirement Gems   `json:"requirement" yaml:"requirement"`
	Prestige    int    `json:"prestige" yaml:"prestige"`
}

// NobleClaim records that a user has been awarded a noble.
type NobleClaim struct {
	NobleID   string    `json:"noble_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}
