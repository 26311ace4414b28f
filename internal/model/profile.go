package model

import "strings"

// Profile identifies the mailbox owner. It is passed explicitly to every
// builder and codec that writes addresses or message-ids.
type Profile struct {
	// Email is written to the From header of pushed notes.
	Email string `mapstructure:"email" yaml:"email"`

	// DomainOverride replaces the domain derived from Email when set.
	DomainOverride string `mapstructure:"domain" yaml:"domain"`
}

// Domain returns the domain used as the right-hand side of message-ids.
func (p Profile) Domain() string {
	if p.DomainOverride != "" {
		return p.DomainOverride
	}
	if i := strings.LastIndex(p.Email, "@"); i >= 0 && i < len(p.Email)-1 {
		return p.Email[i+1:]
	}
	return "localhost"
}
