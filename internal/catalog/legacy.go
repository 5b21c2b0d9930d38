package catalog

import "encoding/json"

// LegacyProduct is the product shape written by the first, browser-only
// version of the storefront (unversioned collections).
type LegacyProduct struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Price  int64   `json:"price"`
	Rating float64 `json:"rating"`
	Img    string  `json:"img"`
	Short  string  `json:"short"`
	Desc   string  `json:"desc"`
	Specs  Specs   `json:"specs"`
}

func (l LegacyProduct) Product() Product {
	return Product{
		ID:          l.ID,
		Title:       l.Title,
		Price:       l.Price,
		Rating:      l.Rating,
		Image:       l.Img,
		Short:       l.Short,
		Description: l.Desc,
		Specs:       l.Specs,
	}
}

func DecodeLegacy(raw json.RawMessage) (Product, error) {
	var l LegacyProduct
	if err := json.Unmarshal(raw, &l); err != nil {
		return Product{}, err
	}
	return l.Product(), nil
}
