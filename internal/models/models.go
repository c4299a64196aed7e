package models

import "fmt"

// Product is one scraped listing tile from a category page. It is built once
// by the extractor and never mutated afterwards; later stages only read it.
//
// OutOfStock, HasDiscount and InventoryStatus carry the site's raw attribute
// values ("True", "False", free text). Consumers decide how to interpret them.
type Product struct {
	URL             string  `json:"url"`
	Name            string  `json:"name"`
	Rating          float64 `json:"rating"`
	ReviewCount     int     `json:"review_count"`
	IherbID         int     `json:"iherb_product_id"`
	PartNo          string  `json:"part_no"`
	BrandName       string  `json:"brand_name"`
	BrandID         string  `json:"brand_id"`
	DiscountPrice   float64 `json:"discount_price"`
	OutOfStock      string  `json:"out_of_stock"`
	HasDiscount     string  `json:"has_discount"`
	InventoryStatus string  `json:"inventory_status"`
	Currency        string  `json:"currency"`
	Price           float64 `json:"price"`
	Category        string  `json:"category"`
}

func (p Product) String() string {
	return fmt.Sprintf("%s (%s) - rating: %g, reviews: %d, price: %g %s",
		p.Name, p.URL, p.Rating, p.ReviewCount, p.Price, p.Currency)
}
