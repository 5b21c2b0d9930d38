package catalog

func builtinProducts() []Product {
	return []Product{
		{
			ID:          "SK001",
			Title:       "HydraGlow Face Cream",
			Price:       899,
			Rating:      4.6,
			Image:       "https://via.placeholder.com/380?text=HydraGlow",
			Short:       "Intense hydration and glowing skin",
			Description: "Use twice daily for radiant, smooth, and hydrated skin.",
			Specs:       Specs{{"Size", "50ml"}, {"Skin", "All types"}, {"Cruelty-free", "Yes"}},
		},
		{
			ID:          "SK002",
			Title:       "Radiant Serum",
			Price:       1299,
			Rating:      4.8,
			Image:       "https://via.placeholder.com/380?text=Radiant+Serum",
			Short:       "Vitamin C & Hyaluronic blend",
			Description: "Apply morning and evening for luminous, healthy skin.",
			Specs:       Specs{{"Size", "30ml"}, {"Benefits", "Brightening"}, {"Ingredients", "Vitamin C"}},
		},
		{
			ID:          "SK003",
			Title:       "Mint Cleanser",
			Price:       499,
			Rating:      4.4,
			Image:       "https://via.placeholder.com/380?text=Mint+Cleanser",
			Short:       "Gentle foaming cleanser with mint extract",
			Description: "Removes impurities without drying the skin.",
			Specs:       Specs{{"Size", "100ml"}, {"Type", "Gel"}, {"Scent", "Fresh Mint"}},
		},
		{
			ID:          "SK004",
			Title:       "Aloe Moist Gel",
			Price:       699,
			Rating:      4.7,
			Image:       "https://via.placeholder.com/380?text=Aloe+Moist+Gel",
			Short:       "Soothing aloe-based daily moisturizer",
			Description: "Lightweight and non-sticky hydration for all skin types.",
			Specs:       Specs{{"Size", "100ml"}, {"Type", "Gel"}, {"Key", "Aloe Vera"}},
		},
	}
}

// Builtin returns the storefront's default catalog.
func Builtin() *Catalog {
	c, err := New(builtinProducts())
	if err != nil {
		panic("catalog: builtin products: " + err.Error())
	}
	return c
}
