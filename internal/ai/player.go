package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tabletop-labs/cardengine/internal/game/model"
	"github.com/tabletop-labs/cardengine/internal/game/resources"
)

// DecisionRequest is the prompt sent to a Decider.
type DecisionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Decider turns a prompt into a free-text answer. Implementations typically
// wrap a language model API.
type Decider interface {
	Decide(ctx context.Context, req DecisionRequest) (string, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, req DecisionRequest) (string, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, req DecisionRequest) (string, error) {
	return f(ctx, req)
}

// DecisionContext is everything a player sees when choosing an action.
type DecisionContext struct {
	State            *model.GameState
	Player           *model.Player
	AvailableActions []model.GameAction
	History          []string
}

// Decision is the chosen action. Action is nil only when nothing was
// available.
type Decision struct {
	Action     *model.GameAction
	Reasoning  string
	Confidence int
}

// PlayerPattern counts observed behavior of one opponent.
type PlayerPattern struct {
	AggressiveActions int
	DefensiveActions  int
}

// GameKnowledge is what a player has learned about one game.
type GameKnowledge struct {
	CardsSeen map[string]bool
	Patterns  map[string]*PlayerPattern
}

const maxDecisionTokens = 500

var fallbackOrder = []model.ActionType{
	model.ActionPlayCard,
	model.ActionAttack,
	model.ActionDrawCard,
	model.ActionPassTurn,
}

var (
	actionLine     = regexp.MustCompile(`^ACTION:\s*(\d+)`)
	confidenceLine = regexp.MustCompile(`^CONFIDENCE:\s*(\d+)`)
)

// Player is one computer-controlled seat.
type Player struct {
	logger      *zap.Logger
	decider     Decider
	personality Personality

	mu        sync.Mutex
	knowledge map[string]*GameKnowledge
}

// NewPlayer creates an AI player. A nil decider means every decision uses
// the rule-based fallback.
func NewPlayer(logger *zap.Logger, decider Decider, personality Personality) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		logger:      logger,
		decider:     decider,
		personality: personality,
		knowledge:   make(map[string]*GameKnowledge),
	}
}

// Personality returns the player's personality.
func (p *Player) Personality() Personality {
	return p.personality
}

// MakeDecision picks one of the available actions. Backend failures and
// empty answers fall back to a fixed priority order.
func (p *Player) MakeDecision(ctx context.Context, dc DecisionContext) Decision {
	if p.decider == nil || len(dc.AvailableActions) == 0 || dc.State == nil || dc.Player == nil {
		return fallbackDecision(dc.AvailableActions)
	}

	answer, err := p.decider.Decide(ctx, DecisionRequest{
		System:      systemPrompt(dc.State.GameType),
		Prompt:      p.buildPrompt(dc),
		Temperature: p.personality.Traits.Unpredictability,
		MaxTokens:   maxDecisionTokens,
	})
	if err != nil {
		p.logger.Warn("ai decision failed, using fallback",
			zap.String("game_id", dc.State.ID),
			zap.String("player_id", dc.Player.ID),
			zap.Error(err),
		)
		return fallbackDecision(dc.AvailableActions)
	}
	if strings.TrimSpace(answer) == "" {
		return fallbackDecision(dc.AvailableActions)
	}
	return parseDecision(answer, dc.AvailableActions)
}

// AnalyzeGameState summarizes the game from playerID's point of view.
func (p *Player) AnalyzeGameState(gs *model.GameState, playerID string) string {
	player, _ := gs.Player(playerID)
	if player == nil {
		return "Player not found"
	}

	lines := []string{
		fmt.Sprintf("Turn %d, %s phase", gs.Turn, gs.Phase.Name),
		"Life: " + lifeString(player),
		fmt.Sprintf("Hand: %d cards", len(player.Zones.Hand)),
		fmt.Sprintf("Deck: %d cards", len(player.Zones.Deck)),
		fmt.Sprintf("In play: %d cards", len(player.Zones.InPlay)),
	}

	if len(player.Resources) > 0 {
		parts := make([]string, 0, len(player.Resources))
		for _, name := range resources.SortedKeys(player.Resources) {
			parts = append(parts, fmt.Sprintf("%s: %d", name, player.Resources[name]))
		}
		lines = append(lines, "Resources: "+strings.Join(parts, ", "))
	}

	for _, opp := range gs.Players {
		if opp == nil || opp.ID == playerID {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s life, %d hand, %d in play",
			opp.Name, lifeString(opp), len(opp.Zones.Hand), len(opp.Zones.InPlay)))
	}
	return strings.Join(lines, "\n")
}

// UpdateGameKnowledge records the cards in play and the pattern of the last
// action.
func (p *Player) UpdateGameKnowledge(gs *model.GameState, last *model.GameAction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k, ok := p.knowledge[gs.ID]
	if !ok {
		k = &GameKnowledge{
			CardsSeen: make(map[string]bool),
			Patterns:  make(map[string]*PlayerPattern),
		}
		p.knowledge[gs.ID] = k
	}

	for _, player := range gs.Players {
		if player == nil {
			continue
		}
		for _, c := range player.Zones.InPlay {
			k.CardsSeen[c.Name+":"+c.CardType] = true
		}
	}

	if last == nil {
		return
	}
	pattern, ok := k.Patterns[last.PlayerID]
	if !ok {
		pattern = &PlayerPattern{}
		k.Patterns[last.PlayerID] = pattern
	}
	switch last.Type {
	case model.ActionAttack:
		pattern.AggressiveActions++
	case model.ActionBlock, model.ActionPassTurn:
		pattern.DefensiveActions++
	}
}

// Knowledge returns a copy of what the player knows about gameID.
func (p *Player) Knowledge(gameID string) (GameKnowledge, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k, ok := p.knowledge[gameID]
	if !ok {
		return GameKnowledge{}, false
	}
	out := GameKnowledge{
		CardsSeen: make(map[string]bool, len(k.CardsSeen)),
		Patterns:  make(map[string]*PlayerPattern, len(k.Patterns)),
	}
	for c := range k.CardsSeen {
		out.CardsSeen[c] = true
	}
	for id, pattern := range k.Patterns {
		cp := *pattern
		out.Patterns[id] = &cp
	}
	return out, true
}

func (p *Player) buildPrompt(dc DecisionContext) string {
	var b strings.Builder
	t := p.personality.Traits

	fmt.Fprintf(&b, "You are playing a %s card game as an AI with this personality:\n", dc.State.GameType)
	fmt.Fprintf(&b, "Name: %s\nDescription: %s\n", p.personality.Name, p.personality.Description)
	fmt.Fprintf(&b, "Traits: Aggressive: %g, Patient: %g, Efficient: %g\n\n", t.Aggressiveness, t.Patience, t.Efficiency)

	fmt.Fprintf(&b, "Current game state:\n%s\n\n", p.AnalyzeGameState(dc.State, dc.Player.ID))

	b.WriteString("Available actions:\n")
	for i, a := range dc.AvailableActions {
		fmt.Fprintf(&b, "%d. %s (Type: %s)\n", i+1, a.Description, a.Type)
	}

	b.WriteString("\nYour hand contains:\n")
	for _, c := range dc.Player.Zones.Hand {
		fmt.Fprintf(&b, "- %s (%s)", c.Name, c.CardType)
		if len(c.Costs) > 0 {
			costs := make([]string, 0, len(c.Costs))
			for _, name := range resources.SortedKeys(c.Costs) {
				costs = append(costs, fmt.Sprintf("%d %s", c.Costs[name], name))
			}
			fmt.Fprintf(&b, " Cost: %s", strings.Join(costs, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nYour cards in play:\n")
	for _, c := range dc.Player.Zones.InPlay {
		fmt.Fprintf(&b, "- %s (%s)", c.Name, c.CardType)
		if power, ok := c.Power(); ok {
			toughness, _ := c.Stat("toughness")
			fmt.Fprintf(&b, " %d/%d", power, toughness)
		}
		b.WriteString("\n")
	}

	if len(dc.History) > 0 {
		b.WriteString("\nRecent history:\n")
		for _, h := range lastN(dc.History, 10) {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}

	fmt.Fprintf(&b, "\nPlease choose the best action and explain your reasoning. Respond in this format:\n"+
		"ACTION: [number from 1-%d]\n"+
		"REASONING: [explanation of why this action is best]\n"+
		"CONFIDENCE: [number from 0-100]", len(dc.AvailableActions))
	return b.String()
}

func systemPrompt(gt model.GameType) string {
	base := fmt.Sprintf("You are an AI player in a %s card game. Make strategic decisions based on the game state and your personality traits.", gt)
	switch gt {
	case model.GameTypeTCG:
		return base + " In TCG games, focus on managing resources, playing creatures and spells efficiently, and timing attacks well. Consider card advantage, mana curve, and board control."
	case model.GameTypePoker:
		return base + " In poker, focus on hand strength, pot odds, position, and reading opponents. Consider bluffing opportunities and bankroll management."
	case model.GameTypeDeckbuilder:
		return base + " In deck-building games, focus on engine building, card synergies, and economy management. Balance buying new cards with playing current cards effectively."
	default:
		return base
	}
}

// parseDecision reads the ACTION/REASONING/CONFIDENCE answer format. An
// out-of-range action number selects the first action. available must not
// be empty.
func parseDecision(answer string, available []model.GameAction) Decision {
	var lines []string
	for _, l := range strings.Split(answer, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	index, reasoning, confidence := 1, "AI decision", 50
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "ACTION:"):
			if m := actionLine.FindStringSubmatch(line); m != nil {
				index, _ = strconv.Atoi(m[1])
			}
		case strings.HasPrefix(line, "REASONING:"):
			text := strings.TrimSpace(strings.TrimPrefix(line, "REASONING:"))
			if text == "" {
				var parts []string
				for _, next := range lines[i+1:] {
					if strings.HasPrefix(next, "CONFIDENCE:") || strings.HasPrefix(next, "ACTION:") {
						break
					}
					parts = append(parts, next)
				}
				text = strings.Join(parts, " ")
			}
			if text != "" {
				reasoning = text
			}
		case strings.HasPrefix(line, "CONFIDENCE:"):
			if m := confidenceLine.FindStringSubmatch(line); m != nil {
				confidence, _ = strconv.Atoi(m[1])
			}
		}
	}

	if index < 1 || index > len(available) {
		index = 1
	}
	action := available[index-1]
	return Decision{
		Action:     &action,
		Reasoning:  reasoning,
		Confidence: max(0, min(100, confidence)),
	}
}

// fallbackDecision prefers playing, then attacking, drawing and passing.
func fallbackDecision(available []model.GameAction) Decision {
	for _, t := range fallbackOrder {
		for i := range available {
			if available[i].Type == t {
				action := available[i]
				return Decision{
					Action:     &action,
					Reasoning:  "Fallback decision due to AI processing error",
					Confidence: 30,
				}
			}
		}
	}
	if len(available) == 0 {
		return Decision{Reasoning: "Emergency fallback decision - no actions available"}
	}
	action := available[0]
	return Decision{Action: &action, Reasoning: "Emergency fallback decision", Confidence: 10}
}

func lifeString(p *model.Player) string {
	if p.Life == nil {
		return "N/A"
	}
	return strconv.Itoa(*p.Life)
}

func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
