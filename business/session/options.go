package session

import (
	"strings"

	"poemEval/domain"
)

var optionLetters = []string{"A", "B", "C", "D"}

const previewFoldThreshold = 7

// buildOptions shuffles the target title in with its three decoys and
// reports which displayed letter is correct.
func (s *Service) buildOptions(target string, decoys []string) ([]PoemOption, string) {
	titles := append([]string{target}, decoys...)
	s.rng.Shuffle(len(titles), func(i, j int) {
		titles[i], titles[j] = titles[j], titles[i]
	})

	options := make([]PoemOption, 0, len(titles))
	targetLetter := ""
	for i, title := range titles {
		letter := optionLetters[i]
		options = append(options, s.poemOption(title, letter))
		if title == target {
			targetLetter = letter
		}
	}
	return options, targetLetter
}

func (s *Service) poemOption(title, letter string) PoemOption {
	poem, _ := s.catalog.Poem(title)
	content := cleanContent(poem.Content)

	lines := strings.Split(content, "\n")
	preview := content
	hasMore := false
	if content != "" && len(lines) >= previewFoldThreshold {
		preview = strings.Join(lines[:3], "\n")
		hasMore = true
	}

	return PoemOption{
		Letter:         letter,
		Title:          title,
		Author:         poem.Author,
		Content:        content,
		Preview:        preview,
		HasMoreContent: hasMore,
	}
}

// pickDecoys returns three decoy titles for the target: the catalog's
// pre-configured similar titles first, topped up with random other titles
// when fewer than three are usable.
func (s *Service) pickDecoys(target string) []string {
	const want = 3

	decoys := make([]string, 0, want)
	used := map[string]struct{}{target: {}}
	for _, t := range s.catalog.Decoys(target) {
		if _, dup := used[t]; dup {
			continue
		}
		if _, ok := s.catalog.Poem(t); !ok {
			continue
		}
		decoys = append(decoys, t)
		used[t] = struct{}{}
		if len(decoys) == want {
			return decoys
		}
	}

	pool := make([]string, 0)
	for _, t := range s.catalog.Titles() {
		if _, dup := used[t]; !dup {
			pool = append(pool, t)
		}
	}
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	for _, t := range pool {
		decoys = append(decoys, t)
		if len(decoys) == want {
			break
		}
	}
	return decoys
}

// cleanContent trims per-line whitespace and drops blank leading/trailing lines.
func cleanContent(content string) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}
	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

func (s *Service) fullPoem(title string) domain.Poem {
	poem, _ := s.catalog.Poem(title)
	poem.Content = cleanContent(poem.Content)
	poem.Decoys = nil
	return poem
}
