package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// tradeAction is one scripted order or replay control executed when the replay reaches Index.
type tradeAction struct {
	Kind     string // buy, sell, sellall, pause, seek or end
	Quantity int
	Target   int           // seek destination
	Hold     time.Duration // pause length
	Index    int
}

func (a tradeAction) control() bool {
	return a.Kind == "seek" || a.Kind == "end"
}

// parseTrade parses "buy:N@index", "sell:N@index", "sellall@index",
// "pause:DURATION@index", "seek:TARGET@index" or "end@index".
func parseTrade(s string) (tradeAction, error) {
	spec, at, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok {
		return tradeAction{}, fmt.Errorf("trade %q: missing @index", s)
	}
	index, err := strconv.Atoi(at)
	if err != nil || index < 0 {
		return tradeAction{}, fmt.Errorf("trade %q: bad index", s)
	}

	kind, arg, hasArg := strings.Cut(strings.ToLower(spec), ":")
	a := tradeAction{Kind: kind, Index: index}
	switch kind {
	case "sellall", "end":
		if hasArg {
			return tradeAction{}, fmt.Errorf("trade %q: %s takes no argument", s, kind)
		}
	case "buy", "sell":
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil || n < 1 {
			return tradeAction{}, fmt.Errorf("trade %q: quantity must be a positive integer", s)
		}
		a.Quantity = n
	case "pause":
		d, err := time.ParseDuration(arg)
		if !hasArg || err != nil || d <= 0 {
			return tradeAction{}, fmt.Errorf("trade %q: pause needs a positive duration", s)
		}
		a.Hold = d
	case "seek":
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil || n <= index {
			return tradeAction{}, fmt.Errorf("trade %q: seek target must be after the index", s)
		}
		a.Target = n
	default:
		return tradeAction{}, fmt.Errorf("trade %q: unknown action %q", s, kind)
	}
	return a, nil
}

// parseTrades groups actions by index. At most one seek or end is allowed per index.
func parseTrades(specs []string) (map[int][]tradeAction, error) {
	byIndex := make(map[int][]tradeAction)
	for _, s := range specs {
		a, err := parseTrade(s)
		if err != nil {
			return nil, err
		}
		if a.control() {
			for _, other := range byIndex[a.Index] {
				if other.control() {
					return nil, fmt.Errorf("trade %q: index %d already has a %s", s, a.Index, other.Kind)
				}
			}
		}
		byIndex[a.Index] = append(byIndex[a.Index], a)
	}
	return byIndex, nil
}
