package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/emberfocus/ember/internal/schema"
)

// InMemorySemantic is a word-overlap stand-in for a vector store. It keeps
// the SemanticMemory contract honest for tests and single-node use.
type InMemorySemantic struct {
	mu       sync.RWMutex
	episodes map[string]schema.Episode
	missions map[string]schema.Mission
	patterns map[string]map[string]string // user id -> pattern type -> summary
}

// NewInMemorySemantic returns an empty semantic store.
func NewInMemorySemantic() *InMemorySemantic {
	return &InMemorySemantic{
		episodes: map[string]schema.Episode{},
		missions: map[string]schema.Mission{},
		patterns: map[string]map[string]string{},
	}
}

func (s *InMemorySemantic) AddEpisode(_ context.Context, episode schema.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes[episode.ID] = episode
	return nil
}

func (s *InMemorySemantic) AddMission(_ context.Context, mission schema.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions[mission.ID] = mission
	return nil
}

func (s *InMemorySemantic) SearchSimilarEpisodes(_ context.Context, userID, query string, limit int, minSimilarity float64) ([]schema.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queryWords := wordSet(query)
	type scored struct {
		score   float64
		episode schema.Episode
	}
	var matches []scored
	for _, e := range s.episodes {
		if e.UserID != userID {
			continue
		}
		text := e.Title + " " + e.Summary + " " + e.Reflection
		overlap := overlapCount(queryWords, wordSet(text))
		if overlap == 0 {
			continue
		}
		score := float64(overlap) / float64(max(len(queryWords), 1))
		if score >= minSimilarity {
			matches = append(matches, scored{score: score, episode: e})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	episodes := make([]schema.Episode, 0, len(matches))
	for _, m := range matches {
		episodes = append(episodes, m.episode)
	}
	return truncate(episodes, limitOr(limit, 5)), nil
}

func (s *InMemorySemantic) SearchSimilarMissions(_ context.Context, userID, query string, limit int) ([]schema.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queryWords := wordSet(query)
	type scored struct {
		overlap int
		mission schema.Mission
	}
	var matches []scored
	for _, m := range s.missions {
		if m.UserID != userID {
			continue
		}
		overlap := overlapCount(queryWords, wordSet(m.Title+" "+m.Description))
		if overlap > 0 {
			matches = append(matches, scored{overlap: overlap, mission: m})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].overlap > matches[j].overlap })
	missions := make([]schema.Mission, 0, len(matches))
	for _, m := range matches {
		missions = append(missions, m.mission)
	}
	return truncate(missions, limitOr(limit, 5)), nil
}

func (s *InMemorySemantic) GetPatternSummary(_ context.Context, userID, patternType string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patterns[userID][patternType], nil
}

func (s *InMemorySemantic) UpdatePatternSummary(_ context.Context, userID, patternType, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patterns[userID] == nil {
		s.patterns[userID] = map[string]string{}
	}
	s.patterns[userID][patternType] = summary
	return nil
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func overlapCount(a, b map[string]struct{}) int {
	count := 0
	for w := range a {
		if _, ok := b[w]; ok {
			count++
		}
	}
	return count
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
