package catalog

// Category is a named group of image identifiers.
type Category struct {
	Name   string   `json:"name"`
	Images []string `json:"image_files"`
}

// Catalog is an ordered, immutable set of categories. Build one with Parse or New.
type Catalog struct {
	names  []string
	byName map[string]Category
}

// Empty returns a catalog with no categories.
func Empty() *Catalog {
	return &Catalog{byName: map[string]Category{}}
}

// New builds a catalog from categories in order. Duplicate or empty names are rejected.
func New(categories ...Category) (*Catalog, error) {
	c := Empty()
	for i, cat := range categories {
		if err := c.add(cat); err != nil {
			return nil, &ParseError{Index: i, Reason: err.Error()}
		}
	}
	return c, nil
}

func (c *Catalog) add(cat Category) error {
	if cat.Name == "" {
		return errEmptyName
	}
	if _, dup := c.byName[cat.Name]; dup {
		return errDuplicateName(cat.Name)
	}
	images := make([]string, len(cat.Images))
	copy(images, cat.Images)
	c.names = append(c.names, cat.Name)
	c.byName[cat.Name] = Category{Name: cat.Name, Images: images}
	return nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns category names in payload order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Get returns a copy of the named category.
func (c *Catalog) Get(name string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	cat, ok := c.byName[name]
	if !ok {
		return Category{}, false
	}
	images := make([]string, len(cat.Images))
	copy(images, cat.Images)
	return Category{Name: cat.Name, Images: images}, true
}

// Categories returns copies of every category in order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, c.Len())
	for _, name := range c.Names() {
		cat, _ := c.Get(name)
		out = append(out, cat)
	}
	return out
}

// Equal reports whether a and b hold the same categories in the same order.
func Equal(a, b *Catalog) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, name := range a.Names() {
		if b.names[i] != name {
			return false
		}
		ca, _ := a.Get(name)
		cb, _ := b.Get(name)
		if len(ca.Images) != len(cb.Images) {
			return false
		}
		for j := range ca.Images {
			if ca.Images[j] != cb.Images[j] {
				return false
			}
		}
	}
	return true
}
