package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"poemEval/domain"
	"poemEval/pkg/logger"
)

// Repository holds the image/poem universe. Loaded once at startup,
// read-only afterwards.
type Repository struct {
	items  []domain.Item
	poems  map[string]domain.Poem
	titles []string
}

// Load scans imageDir for files named {poem_title}_{source}.jpg|png and
// reads poem metadata (author, content, three decoy titles) from poemsCSV.
func Load(imageDir, poemsCSV string) (*Repository, error) {
	poems, err := loadPoems(poemsCSV)
	if err != nil {
		return nil, err
	}

	items, err := scanImages(imageDir, poems)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no valid images found in %s (expected {poem_title}_{source}.jpg|png)", imageDir)
	}

	titles := make([]string, 0, len(poems))
	seen := make(map[string]struct{})
	for _, it := range items {
		if _, dup := seen[it.PoemTitle]; dup {
			continue
		}
		seen[it.PoemTitle] = struct{}{}
		titles = append(titles, it.PoemTitle)
	}

	logger.Info("catalog loaded",
		"images", len(items),
		"poems", len(poems),
		"titles_with_images", len(titles),
	)

	return &Repository{
		items:  items,
		poems:  poems,
		titles: titles,
	}, nil
}

// Items returns the fixed universe for the allocation rotations.
func (r *Repository) Items() []domain.Item {
	out := make([]domain.Item, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Repository) Poem(title string) (domain.Poem, bool) {
	p, ok := r.poems[title]
	return p, ok
}

// Decoys returns the pre-configured similar titles for a poem, excluding
// the poem itself and titles without images in the catalog.
func (r *Repository) Decoys(title string) []string {
	p, ok := r.poems[title]
	if !ok {
		return nil
	}

	withImages := make(map[string]struct{}, len(r.titles))
	for _, t := range r.titles {
		withImages[t] = struct{}{}
	}

	out := make([]string, 0, len(p.Decoys))
	for _, d := range p.Decoys {
		if d == title {
			continue
		}
		if _, ok := withImages[d]; !ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Titles lists every poem title that has at least one image.
func (r *Repository) Titles() []string {
	out := make([]string, len(r.titles))
	copy(out, r.titles)
	return out
}

func scanImages(imageDir string, poems map[string]domain.Poem) ([]domain.Item, error) {
	dirEntries, err := os.ReadDir(imageDir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	var items []domain.Item
	skipped := 0
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".png" {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		idx := strings.LastIndex(stem, "_")
		if idx < 0 {
			skipped++
			continue
		}

		title := stem[:idx]
		source := domain.SourceType(stem[idx+1:])
		if title == "" || !domain.ValidSourceType(source) {
			skipped++
			continue
		}
		if _, ok := poems[title]; !ok {
			skipped++
			continue
		}

		items = append(items, domain.Item{
			PoemTitle:  title,
			ImagePath:  filepath.Join(imageDir, name),
			SourceType: source,
		})
	}

	if skipped > 0 {
		logger.Warn("skipped unrecognized image files", "count", skipped)
	}

	return items, nil
}

// loadPoems reads the poem CSV. Expected header: Title, Author, Content,
// A, B, C — the last three are the decoy titles for the blind phase.
func loadPoems(path string) (map[string]domain.Poem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open poem csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse poem csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("poem csv %s has no data rows", path)
	}

	col := make(map[string]int)
	for i, h := range records[0] {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	for _, required := range []string{"Title", "Author", "Content"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("poem csv missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	poems := make(map[string]domain.Poem)
	for _, row := range records[1:] {
		title := field(row, "Title")
		if title == "" {
			continue
		}

		var decoys []string
		for _, c := range []string{"A", "B", "C"} {
			if d := field(row, c); d != "" {
				decoys = append(decoys, d)
			}
		}

		poems[title] = domain.Poem{
			Title:   title,
			Author:  field(row, "Author"),
			Content: field(row, "Content"),
			Decoys:  decoys,
		}
	}

	if len(poems) == 0 {
		return nil, fmt.Errorf("poem csv %s yielded no poems", path)
	}

	return poems, nil
}
