package service

import (
	"strings"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
)

// UnnamedGroup is the name given to a group submitted without one.
const UnnamedGroup = "Unnamed group"

// Party is a normalised reservation submission.
type Party struct {
	Kind      model.Kind
	General   *model.GeneralParty
	Groups    []model.Group
	Headcount int
}

// MaxCompanionsPerEntry is the largest companion list on the representative
// or on any single group.
func (p *Party) MaxCompanionsPerEntry() int {
	if p.General != nil {
		return len(p.General.Companions)
	}
	n := 0
	for _, g := range p.Groups {
		n = max(n, len(g.Companions))
	}
	return n
}

// Aggregate normalises raw form input and computes its headcount.
//
// Blank companion entries are dropped. A general party counts its
// representative plus companions. An invited party counts only the named
// guests in its groups; the inviting member is not a seat. Groups with no
// name and no guests are dropped, while a named group with no guests is
// kept as a placeholder. A submission with no attendees is rejected.
func Aggregate(in model.ReservationInput) (*Party, error) {
	switch in.Kind {
	case model.KindGeneral:
		name := strings.TrimSpace(in.RepresentativeName)
		if name == "" {
			return nil, invalid("representativeName", "representative name is required")
		}
		companions := cleanNames(in.Companions)
		return &Party{
			Kind:      model.KindGeneral,
			General:   &model.GeneralParty{RepresentativeName: name, Companions: companions},
			Headcount: len(companions) + 1,
		}, nil

	case model.KindInvited:
		p := &Party{Kind: model.KindInvited, Groups: []model.Group{}}
		for _, g := range in.Groups {
			name := strings.TrimSpace(g.GroupName)
			companions := cleanNames(g.Companions)
			if name == "" && len(companions) == 0 {
				continue
			}
			if name == "" {
				name = UnnamedGroup
			}
			p.Groups = append(p.Groups, model.Group{
				GroupName:         name,
				Companions:        companions,
				ReservationNumber: strings.TrimSpace(g.ReservationNumber),
			})
			p.Headcount += len(companions)
		}
		if p.Headcount == 0 {
			return nil, invalid("groups", "at least one guest is required")
		}
		return p, nil

	default:
		return nil, invalid("kind", "must be %q or %q", model.KindGeneral, model.KindInvited)
	}
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
