// Package framework holds the fixed 27-asset venture-building framework that
// Slack messages are classified against.
package framework

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AssetCount is the number of assets in the framework.
const AssetCount = 27

//go:embed assets.yaml
var embeddedAssets []byte

var checklistIDPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

type Framework struct {
	Stages []Stage `json:"stages"`

	assets    map[int]*Asset
	checklist map[string]*ChecklistItem
	stageOf   map[int]int
}

type Stage struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Assets []Asset `json:"assets"`
}

type Asset struct {
	Number    int             `json:"number"`
	Title     string          `json:"title"`
	Purpose   string          `json:"purpose"`
	Checklist []ChecklistItem `json:"checklist"`
}

type ChecklistItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type rawFramework struct {
	Stages []struct {
		Number int    `yaml:"number"`
		Title  string `yaml:"title"`
		Assets []struct {
			Number    int      `yaml:"number"`
			Title     string   `yaml:"title"`
			Purpose   string   `yaml:"purpose"`
			Checklist []string `yaml:"checklist"`
		} `yaml:"assets"`
	} `yaml:"stages"`
}

// Load parses and validates the embedded framework definition.
func Load() (*Framework, error) {
	return Parse(embeddedAssets)
}

// LoadFile parses and validates a framework definition from disk.
func LoadFile(path string) (*Framework, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read framework file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Framework from YAML. Checklist IDs are assigned as
// "<asset>-<index>" with a 1-based index.
func Parse(data []byte) (*Framework, error) {
	var raw rawFramework
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse framework yaml: %w", err)
	}

	fw := &Framework{}
	for _, rs := range raw.Stages {
		stage := Stage{Number: rs.Number, Title: rs.Title}
		for _, ra := range rs.Assets {
			asset := Asset{Number: ra.Number, Title: ra.Title, Purpose: strings.TrimSpace(ra.Purpose)}
			for i, text := range ra.Checklist {
				asset.Checklist = append(asset.Checklist, ChecklistItem{
					ID:   fmt.Sprintf("%d-%d", ra.Number, i+1),
					Text: text,
				})
			}
			stage.Assets = append(stage.Assets, asset)
		}
		fw.Stages = append(fw.Stages, stage)
	}

	if err := fw.Validate(); err != nil {
		return nil, err
	}
	fw.index()
	return fw, nil
}

// Validate checks that the framework has exactly assets 1..27, each once,
// with well-formed contiguous checklist IDs.
func (f *Framework) Validate() error {
	seen := make(map[int]bool, AssetCount)
	for _, stage := range f.Stages {
		if strings.TrimSpace(stage.Title) == "" {
			return fmt.Errorf("stage %d has no title", stage.Number)
		}
		for _, asset := range stage.Assets {
			if asset.Number < 1 || asset.Number > AssetCount {
				return fmt.Errorf("asset number %d out of range 1..%d", asset.Number, AssetCount)
			}
			if seen[asset.Number] {
				return fmt.Errorf("asset %d defined more than once", asset.Number)
			}
			seen[asset.Number] = true

			if strings.TrimSpace(asset.Title) == "" {
				return fmt.Errorf("asset %d has no title", asset.Number)
			}
			for i, item := range asset.Checklist {
				want := fmt.Sprintf("%d-%d", asset.Number, i+1)
				if item.ID != want {
					return fmt.Errorf("asset %d checklist item %d has id %q, want %q", asset.Number, i+1, item.ID, want)
				}
			}
		}
	}

	if len(seen) != AssetCount {
		return fmt.Errorf("framework defines %d assets, want %d", len(seen), AssetCount)
	}
	return nil
}

func (f *Framework) index() {
	f.assets = make(map[int]*Asset, AssetCount)
	f.checklist = make(map[string]*ChecklistItem)
	f.stageOf = make(map[int]int, AssetCount)

	for si := range f.Stages {
		stage := &f.Stages[si]
		for ai := range stage.Assets {
			asset := &stage.Assets[ai]
			f.assets[asset.Number] = asset
			f.stageOf[asset.Number] = stage.Number
			for ci := range asset.Checklist {
				f.checklist[asset.Checklist[ci].ID] = &asset.Checklist[ci]
			}
		}
	}
}

// Asset returns the asset with number n.
func (f *Framework) Asset(n int) (Asset, bool) {
	a, ok := f.assets[n]
	if !ok {
		return Asset{}, false
	}
	return *a, true
}

// StageOf returns the stage number an asset belongs to.
func (f *Framework) StageOf(assetNumber int) int {
	return f.stageOf[assetNumber]
}

// ChecklistItem looks up an item by its "<asset>-<index>" ID.
func (f *Framework) ChecklistItem(id string) (ChecklistItem, bool) {
	item, ok := f.checklist[id]
	if !ok {
		return ChecklistItem{}, false
	}
	return *item, true
}

// Assets returns all assets in ascending number order.
func (f *Framework) Assets() []Asset {
	out := make([]Asset, 0, AssetCount)
	for n := 1; n <= AssetCount; n++ {
		if a, ok := f.assets[n]; ok {
			out = append(out, *a)
		}
	}
	return out
}

// ParseChecklistID splits "<asset>-<index>" into its parts.
func ParseChecklistID(id string) (assetNumber, index int, ok bool) {
	m := checklistIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, 0, false
	}
	assetNumber, _ = strconv.Atoi(m[1])
	index, _ = strconv.Atoi(m[2])
	return assetNumber, index, index > 0
}
