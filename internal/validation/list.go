package validation

import (
	"math/rand/v2"
	"sync"

	"github.com/tempus-app/tempus/internal/models"
)

// DefaultListIcon is used when a list is created without an icon
const DefaultListIcon = "🏠"

var vibrantColors = []string{
	"#FF6B6B", "#4ECDC4", "#FFD166", "#06D6A0",
	"#118AB2", "#073B4C", "#F15BB5", "#7209B7",
	"#3A86FF", "#FB5607", "#FCBF49", "#F72585",
	"#4361EE", "#480CA8", "#B5179E", "#560BAD",
	"#FF9A8B", "#01BAEF", "#FFCB77", "#00F5D4",
	"#845EC2", "#FF8066", "#4FFBDF", "#FFC75F",
	"#00C9A7", "#C34A36", "#845EC2", "#D65DB1",
	"#FF6F91", "#FF9671", "#FFC75F", "#008F7A",
}

var defaultPalette = NewPalette(1)

// Palette hands out list colours. The sequence is fixed for a given seed.
type Palette struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPalette creates a palette seeded for reproducible colour picks
func NewPalette(seed uint64) *Palette {
	return &Palette{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns the next colour from the palette
func (p *Palette) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return vibrantColors[p.rng.IntN(len(vibrantColors))]
}

// Colors returns a copy of the palette's colours
func Colors() []string {
	return append([]string(nil), vibrantColors...)
}

// ValidateListForCreate requires a non-blank name and a hex colour, picking
// one from the palette when none is given
func ValidateListForCreate(in models.CreateListInput, palette *Palette) (models.CreateListInput, error) {
	in.ListName = SanitizeText(in.ListName)
	in.ListIcon = SanitizeText(in.ListIcon)
	if in.ListIcon == "" {
		in.ListIcon = DefaultListIcon
	}
	if palette == nil {
		palette = defaultPalette
	}
	if in.ListColor == "" {
		in.ListColor = palette.Next()
	}
	if err := Struct(in); err != nil {
		return models.CreateListInput{}, err
	}
	return in, nil
}
