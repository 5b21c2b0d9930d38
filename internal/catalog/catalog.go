package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrDuplicateID = errors.New("duplicate product id")
	ErrEmptyID     = errors.New("empty product id")
)

type Product struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Price       int64   `json:"price"`
	Rating      float64 `json:"rating"`
	Image       string  `json:"image"`
	Short       string  `json:"short"`
	Description string  `json:"description"`
	Specs       Specs   `json:"specs"`
}

// Catalog is the fixed, read-only product list. It is built once and shared
// by every component that needs product lookups.
type Catalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, ErrEmptyID
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		p.Specs = p.Specs.Clone()
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// List returns the products in catalog order. The slice is a copy.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		p.Specs = p.Specs.Clone()
		out[i] = p
	}
	return out
}

func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, false
	}
	p := c.products[i]
	p.Specs = p.Specs.Clone()
	return p, true
}

// Lookup is Get with ErrNotFound instead of a bool.
func (c *Catalog) Lookup(id string) (Product, error) {
	p, ok := c.Get(id)
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (c *Catalog) Len() int { return len(c.products) }
