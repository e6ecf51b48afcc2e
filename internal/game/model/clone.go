package model

// Clone returns a deep copy of the state. Every slice, map and pointer is
// copied; time.Time values are copied by value.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := &GameState{
		ID:                 s.ID,
		GameType:           s.GameType,
		Rules:              s.Rules.Clone(),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		Phase:              s.Phase.Clone(),
		Turn:               s.Turn,
		GameStatus:         s.GameStatus,
		Zones:              s.Zones.Clone(),
		Metadata:           s.Metadata,
	}
	if s.Players != nil {
		out.Players = make([]*Player, len(s.Players))
		for i, p := range s.Players {
			out.Players[i] = p.Clone()
		}
	}
	if s.History != nil {
		out.History = make([]GameEvent, len(s.History))
		for i := range s.History {
			out.History[i] = s.History[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	out := &Player{
		ID:         p.ID,
		Name:       p.Name,
		IsAI:       p.IsAI,
		Resources:  Resources(cloneIntMap(p.Resources)),
		Zones:      p.Zones.Clone(),
		Statistics: p.Statistics,
	}
	if p.Life != nil {
		out.SetLife(*p.Life)
	}
	out.Statistics.GameSpecific = cloneIntMap(p.Statistics.GameSpecific)
	return out
}

// Clone returns a deep copy of the zones.
func (z PlayerZones) Clone() PlayerZones {
	return PlayerZones{
		Hand:      CloneCards(z.Hand),
		Deck:      CloneCards(z.Deck),
		Graveyard: CloneCards(z.Graveyard),
		InPlay:    CloneCards(z.InPlay),
		Exile:     CloneCards(z.Exile),
		Custom:    cloneZoneMap(z.Custom),
	}
}

// Clone returns a deep copy of the shared zones.
func (z GameZones) Clone() GameZones {
	return GameZones{
		Shared: CloneCards(z.Shared),
		Market: CloneCards(z.Market),
		Supply: CloneCards(z.Supply),
		Custom: cloneZoneMap(z.Custom),
	}
}

// Clone returns a deep copy of the phase.
func (p GamePhase) Clone() GamePhase {
	out := p
	if p.AllowedActions != nil {
		out.AllowedActions = append([]ActionType{}, p.AllowedActions...)
	}
	return out
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	out.Stats = cloneAnyMap(c.Stats)
	out.Costs = cloneIntMap(c.Costs)
	out.Tags = cloneStrings(c.Tags)
	out.Keywords = cloneStrings(c.Keywords)
	out.Metadata = cloneAnyMap(c.Metadata)
	if c.Properties != nil {
		out.Properties = make([]CardProperty, len(c.Properties))
		for i, prop := range c.Properties {
			prop.Value = cloneAny(prop.Value)
			out.Properties[i] = prop
		}
	}
	if c.Abilities != nil {
		out.Abilities = make([]Ability, len(c.Abilities))
		for i, a := range c.Abilities {
			a.Conditions = cloneStrings(a.Conditions)
			out.Abilities[i] = a
		}
	}
	return out
}

// CloneCards deep-copies a card slice, preserving nil.
func CloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	for i := range cards {
		out[i] = cards[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the collection.
func (c *CardCollection) Clone() *CardCollection {
	if c == nil {
		return nil
	}
	out := *c
	out.Cards = CloneCards(c.Cards)
	out.Metadata = cloneAnyMap(c.Metadata)
	return &out
}

// Clone returns a deep copy of the action.
func (a *GameAction) Clone() *GameAction {
	if a == nil {
		return nil
	}
	out := *a
	if a.Targets != nil {
		out.Targets = append([]ActionTarget{}, a.Targets...)
	}
	out.Costs = cloneIntMap(a.Costs)
	if a.Requirements != nil {
		out.Requirements = append([]ActionRequirement{}, a.Requirements...)
	}
	out.Effects = CloneEffects(a.Effects)
	return &out
}

// CloneEffects deep-copies an effect list, preserving nil.
func CloneEffects(effects []ActionEffect) []ActionEffect {
	if effects == nil {
		return nil
	}
	out := make([]ActionEffect, len(effects))
	for i, e := range effects {
		if e.Targets != nil {
			e.Targets = append([]ActionTarget{}, e.Targets...)
		}
		e.Value.Stats = cloneAnyMap(e.Value.Stats)
		out[i] = e
	}
	return out
}

// Clone returns a deep copy of the event.
func (e GameEvent) Clone() GameEvent {
	out := e
	out.Action = e.Action.Clone()
	out.Result = cloneAny(e.Result)
	return out
}

// Clone returns a deep copy of the rules.
func (r *UniversalGameRules) Clone() *UniversalGameRules {
	if r == nil {
		return nil
	}
	out := *r
	out.GameSetup.StartingResources = cloneIntMap(r.GameSetup.StartingResources)
	if r.GameSetup.StartingHandSize != nil {
		out.GameSetup.StartingHandSize = IntPtr(*r.GameSetup.StartingHandSize)
	}
	out.CardProperties = cloneStrings(r.CardProperties)
	if r.TurnStructure != nil {
		out.TurnStructure = make([]TurnPhase, len(r.TurnStructure))
		for i, tp := range r.TurnStructure {
			tp.Actions = cloneStrings(tp.Actions)
			out.TurnStructure[i] = tp
		}
	}
	if r.ActionRules != nil {
		out.ActionRules = make([]ActionRule, len(r.ActionRules))
		for i, ar := range r.ActionRules {
			ar.Costs = cloneIntMap(ar.Costs)
			ar.Requirements = cloneStrings(ar.Requirements)
			out.ActionRules[i] = ar
		}
	}
	if r.WinConditions != nil {
		out.WinConditions = make([]WinCondition, len(r.WinConditions))
		for i, wc := range r.WinConditions {
			wc.Requirements = cloneStrings(wc.Requirements)
			out.WinConditions[i] = wc
		}
	}
	out.Keywords = cloneStrings(r.Keywords)
	out.StateBasedActions = cloneStrings(r.StateBasedActions)
	out.TimingRules = cloneStrings(r.TimingRules)
	out.Extensions = cloneAnyMap(r.Extensions)
	if r.ResourceSystems != nil {
		out.ResourceSystems = append([]ResourceSystem{}, r.ResourceSystems...)
	}
	return &out
}

func cloneZoneMap(m map[string][]Card) map[string][]Card {
	if m == nil {
		return nil
	}
	out := make(map[string][]Card, len(m))
	for k, v := range m {
		out[k] = CloneCards(v)
	}
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAny(v)
	}
	return out
}

// cloneAny copies the container shapes produced by JSON decoding and by the
// engine itself. Other values are treated as immutable scalars.
func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneAnyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneAny(item)
		}
		return out
	case map[string]int:
		return cloneIntMap(t)
	case []string:
		return cloneStrings(t)
	case *GameAction:
		return t.Clone()
	default:
		return v
	}
}
