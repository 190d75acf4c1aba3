// Package catalogs holds the static rule tables the derivation engines read:
// asset definitions, the munitions list, the hull-stat-by-dimension table and
// the class canonicalization maps. No logic beyond loading and lookup lives
// here. Defaults are embedded; operators may override individual files from a
// config directory.
package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"shoshin/internal/roster/state"
)

//go:embed data/*.json
var embedded embed.FS

// Asset kinds. Exactly two are recognized; anything else resolves to "no
// asset" behavior in the resolver.
const (
	KindVessel    = "vessel"
	KindArtillery = "artillery"
)

type Catalogs struct {
	Assets      AssetCatalog
	Munitions   MunitionCatalog
	Hulls       HullCatalog
	Classes     ClassCatalog
	Detachments DetachmentCatalog
}

type AssetDef struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	BaseCost  int      `json:"base_cost"`
	Modifiers []string `json:"modifiers,omitempty"`
	Training  []string `json:"training,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
}

type AssetCatalog struct {
	Order  []string // display names in catalog order
	byKey  map[string]AssetDef
	Digest string
}

func (c *AssetCatalog) ByKey(key string) (AssetDef, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

type MunitionDef struct {
	Name     string `json:"name"`
	Cost     int    `json:"cost"`
	Damage   string `json:"damage"`
	Critical string `json:"critical"`
	Distance string `json:"distance"`
}

type MunitionCatalog struct {
	Order  []string
	byKey  map[string]MunitionDef
	Digest string
}

func (c *MunitionCatalog) ByKey(key string) (MunitionDef, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

type HullDim struct {
	Width     int    `json:"width"`
	Length    int    `json:"length"`
	Bases     int    `json:"-"` // width*length, filled at load
	Category  string `json:"-"` // from the width->category table
	Toughness int    `json:"toughness"`
	Cost      int    `json:"cost"`
}

// Label is the display form of the dimension ("2×4").
func (d HullDim) Label() string {
	return fmt.Sprintf("%d×%d", d.Width, d.Length)
}

type HullCatalog struct {
	Order     []string // "WxL" keys in catalog order
	dims      map[string]HullDim
	widthCat  map[int]string
	movement  map[string]int
	operators map[string]int
	Digest    string
}

func (c *HullCatalog) Dim(key string) (HullDim, bool) {
	d, ok := c.dims[key]
	return d, ok
}

// CategoryForWidth maps a parsed width to a hull-size category; unknown
// widths yield "".
func (c *HullCatalog) CategoryForWidth(w int) string { return c.widthCat[w] }

// Movement and Operators are fixed per-category lookups, independent of the
// per-dimension table. Unknown categories yield 0.
func (c *HullCatalog) Movement(category string) int  { return c.movement[category] }
func (c *HullCatalog) Operators(category string) int { return c.operators[category] }

// Categories lists the hull-size categories in ascending width order.
func (c *HullCatalog) Categories() []string {
	out := make([]string, 0, len(c.widthCat))
	for w := 1; ; w++ {
		cat, ok := c.widthCat[w]
		if !ok {
			break
		}
		out = append(out, cat)
	}
	return out
}

type ClassCatalog struct {
	Canonical         map[string]string `json:"canonical"` // folded key -> bucket name
	DisplayOrder      []string          `json:"display_order"`
	ShipSynonyms      []string          `json:"ship_synonyms"`
	ArtillerySynonyms []string          `json:"artillery_synonyms"`
	Digest            string            `json:"-"`

	shipSet      map[string]bool
	artillerySet map[string]bool
	orderIndex   map[string]int
}

// CanonicalClass resolves a folded class key to its bucket name.
func (c *ClassCatalog) CanonicalClass(key string) (string, bool) {
	name, ok := c.Canonical[key]
	return name, ok
}

func (c *ClassCatalog) IsShip(key string) bool      { return c.shipSet[key] }
func (c *ClassCatalog) IsArtillery(key string) bool { return c.artillerySet[key] }

// OrderIndex returns the display position of a bucket; unrecognized buckets
// sort to the bottom.
func (c *ClassCatalog) OrderIndex(bucket string) int {
	if i, ok := c.orderIndex[bucket]; ok {
		return i
	}
	return len(c.DisplayOrder)
}

type DetachmentMode struct {
	Name     string `json:"name"`
	Attack   int    `json:"attack"`
	Movement int    `json:"movement"`
}

type DetachmentCatalog struct {
	Order  []string
	byKey  map[string]DetachmentMode
	Digest string
}

func (c *DetachmentCatalog) ByKey(key string) (DetachmentMode, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

// Digests summarizes the loaded tables for handshake/caching purposes.
type Digests struct {
	Assets      string `json:"assets"`
	Munitions   string `json:"munitions"`
	Hulls       string `json:"hulls"`
	Classes     string `json:"classes"`
	Detachments string `json:"detachments"`
}

func (c *Catalogs) Digests() Digests {
	return Digests{
		Assets:      c.Assets.Digest,
		Munitions:   c.Munitions.Digest,
		Hulls:       c.Hulls.Digest,
		Classes:     c.Classes.Digest,
		Detachments: c.Detachments.Digest,
	}
}

// Default builds the catalogs from the embedded table data.
func Default() (*Catalogs, error) {
	return load(func(name string) ([]byte, error) {
		return embedded.ReadFile("data/" + name)
	})
}

// LoadDir builds catalogs from dir, falling back to the embedded copy for
// any file the directory does not provide.
func LoadDir(dir string) (*Catalogs, error) {
	return load(func(name string) ([]byte, error) {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return raw, nil
		}
		if os.IsNotExist(err) {
			return embedded.ReadFile("data/" + name)
		}
		return nil, err
	})
}

func load(read func(name string) ([]byte, error)) (*Catalogs, error) {
	var c Catalogs
	steps := []struct {
		file string
		fn   func(raw []byte) error
	}{
		{"assets.json", c.loadAssets},
		{"munitions.json", c.loadMunitions},
		{"hulls.json", c.loadHulls},
		{"classes.json", c.loadClasses},
		{"detachments.json", c.loadDetachments},
	}
	for _, s := range steps {
		raw, err := read(s.file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.file, err)
		}
		if err := s.fn(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", s.file, err)
		}
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (c *Catalogs) loadAssets(raw []byte) error {
	c.Assets.Digest = sha256Hex(raw)

	var defs []AssetDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return err
	}
	c.Assets.byKey = map[string]AssetDef{}
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("empty asset name")
		}
		if d.Kind != KindVessel && d.Kind != KindArtillery {
			return fmt.Errorf("asset %s: unknown kind %q", d.Name, d.Kind)
		}
		c.Assets.Order = append(c.Assets.Order, d.Name)
		c.Assets.byKey[state.Key(d.Name)] = d
	}
	return nil
}

func (c *Catalogs) loadMunitions(raw []byte) error {
	c.Munitions.Digest = sha256Hex(raw)

	var defs []MunitionDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return err
	}
	c.Munitions.byKey = map[string]MunitionDef{}
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("empty munition name")
		}
		c.Munitions.Order = append(c.Munitions.Order, d.Name)
		c.Munitions.byKey[state.Key(d.Name)] = d
	}
	return nil
}

func (c *Catalogs) loadHulls(raw []byte) error {
	c.Hulls.Digest = sha256Hex(raw)

	var doc struct {
		Dims          []HullDim         `json:"dims"`
		WidthCategory map[string]string `json:"width_category"`
		Movement      map[string]int    `json:"movement"`
		Operators     map[string]int    `json:"operators"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	c.Hulls.widthCat = map[int]string{}
	for ws, cat := range doc.WidthCategory {
		w, err := strconv.Atoi(ws)
		if err != nil {
			return fmt.Errorf("width_category key %q: %w", ws, err)
		}
		c.Hulls.widthCat[w] = cat
	}
	c.Hulls.movement = doc.Movement
	c.Hulls.operators = doc.Operators

	c.Hulls.dims = map[string]HullDim{}
	for _, d := range doc.Dims {
		if d.Width <= 0 || d.Length <= 0 {
			return fmt.Errorf("bad hull dim %dx%d", d.Width, d.Length)
		}
		d.Bases = d.Width * d.Length
		d.Category = c.Hulls.widthCat[d.Width]
		if d.Category == "" {
			return fmt.Errorf("hull dim %dx%d: no category for width", d.Width, d.Length)
		}
		key := state.DimKey(d.Width, d.Length)
		c.Hulls.Order = append(c.Hulls.Order, key)
		c.Hulls.dims[key] = d
	}
	return nil
}

func (c *Catalogs) loadClasses(raw []byte) error {
	c.Classes.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &c.Classes); err != nil {
		return err
	}
	if len(c.Classes.Canonical) == 0 {
		return fmt.Errorf("empty canonical class map")
	}
	c.Classes.shipSet = map[string]bool{}
	for _, s := range c.Classes.ShipSynonyms {
		c.Classes.shipSet[state.Key(s)] = true
	}
	c.Classes.artillerySet = map[string]bool{}
	for _, s := range c.Classes.ArtillerySynonyms {
		c.Classes.artillerySet[state.Key(s)] = true
	}
	c.Classes.orderIndex = map[string]int{}
	for i, b := range c.Classes.DisplayOrder {
		c.Classes.orderIndex[b] = i
	}
	return nil
}

func (c *Catalogs) loadDetachments(raw []byte) error {
	c.Detachments.Digest = sha256Hex(raw)

	var doc struct {
		Modes []DetachmentMode `json:"modes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	c.Detachments.byKey = map[string]DetachmentMode{}
	for _, m := range doc.Modes {
		if m.Name == "" {
			return fmt.Errorf("empty detachment mode name")
		}
		c.Detachments.Order = append(c.Detachments.Order, m.Name)
		c.Detachments.byKey[state.Key(m.Name)] = m
	}
	return nil
}
