package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidChoice = errors.New("invalid choice")

type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

type Outcome int

const (
	Tie Outcome = iota
	FirstWins
	SecondWins
)

func (o Outcome) String() string {
	switch o {
	case Tie:
		return "tie"
	case FirstWins:
		return "first_wins"
	case SecondWins:
		return "second_wins"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Invert swaps the winning side. Evaluate(a, b) == Evaluate(b, a).Invert().
func (o Outcome) Invert() Outcome {
	switch o {
	case FirstWins:
		return SecondWins
	case SecondWins:
		return FirstWins
	default:
		return o
	}
}

func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
	return c, nil
}

func (c Choice) Valid() bool {
	_, ok := choiceIndex(c)
	return ok
}

// Label is the capitalised form shown on buttons and menus.
func (c Choice) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Evaluate decides a round between a (the first player) and b.
// Choices are ordered rock, paper, scissors; each one beats the one before it,
// wrapping around, so a beats b iff (index(b)+1) mod 3 == index(a).
func Evaluate(a, b Choice) (Outcome, error) {
	ia, ok := choiceIndex(a)
	if !ok {
		return Tie, fmt.Errorf("%w: %q", ErrInvalidChoice, a)
	}
	ib, ok := choiceIndex(b)
	if !ok {
		return Tie, fmt.Errorf("%w: %q", ErrInvalidChoice, b)
	}

	switch {
	case ia == ib:
		return Tie, nil
	case (ib+1)%len(Choices) == ia:
		return FirstWins, nil
	default:
		return SecondWins, nil
	}
}
