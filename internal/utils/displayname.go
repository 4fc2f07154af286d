package utils

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var adjectives = []string{
	"Swift", "Brave", "Clever", "Noble", "Silent", "Golden", "Silver", "Crimson",
	"Azure", "Cosmic", "Fierce", "Gentle", "Bold", "Wise", "Quick", "Keen",
	"Lucky", "Sly", "Stubborn", "Patient", "Cunning", "Daring", "Steady", "Sharp",
}

var nouns = []string{
	"Nought", "Cross", "Corner", "Center", "Edge", "Diagonal", "Fork", "Block",
	"Grid", "Square", "Line", "Row", "Column", "Stalemate", "Gambit", "Tactician",
	"Fox", "Owl", "Hawk", "Wolf", "Otter", "Badger", "Raven", "Lynx",
}

var ErrNoDisplayName = errors.New("failed to generate unique display name")

// RandomDisplayName returns a name like "CleverFork417". Suffixes are drawn
// from [0, maxSuffix).
func RandomDisplayName(maxSuffix int) string {
	return fmt.Sprintf("%s%s%d",
		adjectives[rand.IntN(len(adjectives))],
		nouns[rand.IntN(len(nouns))],
		rand.IntN(maxSuffix))
}

// UniqueDisplayName draws names until taken reports one free. After the
// first batch of collisions it widens the numeric suffix.
func UniqueDisplayName(taken func(name string) (bool, error)) (string, error) {
	for _, maxSuffix := range []int{1000, 100000} {
		for range 100 {
			name := RandomDisplayName(maxSuffix)
			exists, err := taken(name)
			if err != nil {
				return "", fmt.Errorf("check display name: %w", err)
			}
			if !exists {
				return name, nil
			}
		}
	}
	return "", ErrNoDisplayName
}
