// Package permissions holds the SMS permission names and the per-request Gate
// that answers access questions for one subject.
package permissions

import (
	"maps"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	SmsView         = "sms:smses:view"
	SmsViewOwn      = "sms:smses:viewown"
	SmsViewOther    = "sms:smses:viewother"
	SmsCreate       = "sms:smses:create"
	SmsEditOwn      = "sms:smses:editown"
	SmsEditOther    = "sms:smses:editother"
	SmsDeleteOwn    = "sms:smses:deleteown"
	SmsDeleteOther  = "sms:smses:deleteother"
	SmsPublishOwn   = "sms:smses:publishown"
	SmsPublishOther = "sms:smses:publishother"
)

// Sms lists every grantable SMS permission.
var Sms = []string{
	SmsViewOwn, SmsViewOther,
	SmsCreate,
	SmsEditOwn, SmsEditOther,
	SmsDeleteOwn, SmsDeleteOther,
	SmsPublishOwn, SmsPublishOther,
}

// Set maps permission names to whether they are granted.
type Set map[string]bool

// All grants every known permission.
func All() Set {
	s := Set{}
	for _, p := range Sms {
		s[p] = true
	}
	return s
}

func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name, ok := range s {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsKnown reports whether name is a grantable permission.
func IsKnown(name string) bool {
	for _, p := range Sms {
		if p == name {
			return true
		}
	}
	return false
}

// Gate answers permission questions for one subject. It is read-only after construction.
type Gate struct {
	subject uuid.UUID
	set     Set
}

func NewGate(subject uuid.UUID, set Set) *Gate {
	return &Gate{subject: subject, set: maps.Clone(set)}
}

func (g *Gate) Subject() uuid.UUID {
	if g == nil {
		return uuid.Nil
	}
	return g.subject
}

// IsGranted checks a single permission. A level without an own/other suffix,
// such as sms:smses:view, is granted when either variant is held.
func (g *Gate) IsGranted(name string) bool {
	if g == nil {
		return false
	}
	if g.set[name] {
		return true
	}
	if strings.HasSuffix(name, "own") || strings.HasSuffix(name, "other") {
		return false
	}
	return g.set[name+"own"] || g.set[name+"other"]
}

// CanAccess grants access when the subject owns the resource and holds own,
// or holds other regardless of ownership.
func (g *Gate) CanAccess(own, other string, ownerID uuid.UUID) bool {
	if g == nil {
		return false
	}
	if g.subject != uuid.Nil && g.subject == ownerID && g.set[own] {
		return true
	}
	return g.set[other]
}

// Permissions returns a copy of the granted set, for view parameters.
func (g *Gate) Permissions() Set {
	if g == nil {
		return Set{}
	}
	return maps.Clone(g.set)
}
