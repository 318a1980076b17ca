package datasync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sanhsing/beidou-edu-server/internal/review"
)

// Deck is a YAML file listing knowledge nodes to enroll a learner in.
//
//	scope_id: ipas-ai
//	mode: ladder
//	node_ids:
//	  - node-1
//	  - node-2
type Deck struct {
	ScopeID string   `yaml:"scope_id"`
	Mode    string   `yaml:"mode,omitempty"`
	NodeIDs []string `yaml:"node_ids"`

	path string
}

// Path returns the file the deck was read from.
func (d Deck) Path() string {
	return d.path
}

// ReadDecks reads a deck file, or every .yml and .yaml file below a directory in path order.
func ReadDecks(path string) ([]Deck, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("os.Stat(%s) > %w", path, err)
	}
	if !info.IsDir() {
		deck, err := readDeck(path)
		if err != nil {
			return nil, err
		}
		return []Deck{deck}, nil
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !d.IsDir() && (ext == ".yml" || ext == ".yaml") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filepath.WalkDir(%s) > %w", path, err)
	}
	sort.Strings(paths)

	decks := make([]Deck, 0, len(paths))
	for _, p := range paths {
		deck, err := readDeck(p)
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}
	return decks, nil
}

func readDeck(path string) (Deck, error) {
	file, err := os.Open(path)
	if err != nil {
		return Deck{}, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	var deck Deck
	if err := yaml.NewDecoder(file).Decode(&deck); err != nil && err != io.EOF {
		return Deck{}, fmt.Errorf("yaml.NewDecoder(%s).Decode() > %w", path, err)
	}
	deck.path = path
	return deck, nil
}

// Enroller adds nodes to a learner's deck.
type Enroller interface {
	Enroll(ctx context.Context, req review.EnrollRequest) (review.EnrollResult, error)
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool
	// Mode is used for decks that do not name one.
	Mode review.Mode
}

// ImportResult sums up enrollment over all decks.
type ImportResult struct {
	Decks   int
	Created int
	Skipped int
}

// Importer enrolls a learner in the nodes listed by decks.
type Importer struct {
	enroller Enroller
	writer   io.Writer
}

// NewImporter creates a new Importer.
func NewImporter(enroller Enroller, writer io.Writer) *Importer {
	return &Importer{enroller: enroller, writer: writer}
}

// ImportDecks enrolls learnerID in every deck. Existing items are skipped, never reset.
func (imp *Importer) ImportDecks(ctx context.Context, learnerID string, decks []Deck, opts ImportOptions) (*ImportResult, error) {
	var result ImportResult
	for _, deck := range decks {
		if deck.ScopeID == "" {
			return nil, fmt.Errorf("%w: deck %s has no scope_id", review.ErrInvalidInput, deck.path)
		}
		mode := opts.Mode
		if deck.Mode != "" {
			parsed, err := review.ParseMode(deck.Mode)
			if err != nil {
				return nil, fmt.Errorf("deck %s: %w", deck.path, err)
			}
			mode = parsed
		}

		result.Decks++
		if opts.DryRun {
			fmt.Fprintf(imp.writer, "  [PLAN]  %s: %d nodes (%s)\n", deck.ScopeID, len(deck.NodeIDs), modeLabel(mode))
			continue
		}

		enrolled, err := imp.enroller.Enroll(ctx, review.EnrollRequest{
			LearnerID: learnerID,
			ScopeID:   deck.ScopeID,
			NodeIDs:   deck.NodeIDs,
			Mode:      mode,
		})
		if err != nil {
			return nil, fmt.Errorf("Enroll(%s) > %w", deck.ScopeID, err)
		}
		fmt.Fprintf(imp.writer, "  [ENROLL]  %s: %d new, %d skipped\n", deck.ScopeID, enrolled.Created, enrolled.Skipped)
		result.Created += enrolled.Created
		result.Skipped += enrolled.Skipped
	}
	return &result, nil
}

func modeLabel(mode review.Mode) string {
	if mode == "" {
		return "default mode"
	}
	return mode.String()
}
