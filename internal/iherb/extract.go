package iherb

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nboudali/herbscrap/internal/models"
)

// itemSelector marks one product tile on a listing page.
const itemSelector = "div.product-inner.product-inner-wide"

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// ExtractRecords parses one listing page body into product records, in
// document order.
//
// A tile without rating/review metadata is still produced, with both values
// zero. A tile missing an identity field (link, name, product id, brand,
// prices, category) is dropped with a log line; one damaged tile never aborts
// the rest of the page.
func ExtractRecords(body string) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var records []models.Product
	doc.Find(itemSelector).Each(func(i int, item *goquery.Selection) {
		p, err := extractItem(item)
		if err != nil {
			log.Printf("skipping item %d: %v", i, err)
			return
		}
		records = append(records, p)
	})
	return records, nil
}

func extractItem(item *goquery.Selection) (models.Product, error) {
	a := item.Find("a").First()

	href := a.AttrOr("href", "")
	if href == "" {
		return models.Product{}, errors.New("missing detail link")
	}
	name := strings.TrimSpace(item.Find(`div.product-title[itemprop="name"]`).First().Text())
	if name == "" {
		return models.Product{}, errors.New("missing product name")
	}

	idRaw := a.AttrOr("data-product-id", "")
	iherbID, err := strconv.Atoi(idRaw)
	if err != nil {
		return models.Product{}, fmt.Errorf("bad product id %q: %w", idRaw, err)
	}

	brandName := a.AttrOr("data-ga-brand-name", "")
	if brandName == "" {
		return models.Product{}, errors.New("missing brand name")
	}

	discountPrice, err := ParsePrice(a.AttrOr("data-ga-discount-price", ""))
	if err != nil {
		return models.Product{}, fmt.Errorf("discount price: %w", err)
	}

	priceRaw := item.Find(`meta[itemprop="price"]`).First().AttrOr("content", "")
	price, err := ParsePrice(priceRaw)
	if err != nil {
		return models.Product{}, fmt.Errorf("price: %w", err)
	}

	category := item.Find(`div[itemprop="category"]`).First().AttrOr("content", "")
	if category == "" {
		return models.Product{}, errors.New("missing category")
	}

	rating, reviews := ratingMeta(item, name)

	return models.Product{
		URL:             href,
		Name:            name,
		Rating:          rating,
		ReviewCount:     reviews,
		IherbID:         iherbID,
		PartNo:          a.AttrOr("data-part-number", ""),
		BrandName:       brandName,
		BrandID:         a.AttrOr("data-ga-brand-id", ""),
		DiscountPrice:   discountPrice,
		OutOfStock:      a.AttrOr("data-ga-is-out-of-stock", ""),
		HasDiscount:     a.AttrOr("data-ga-is-discontinued", ""),
		InventoryStatus: a.AttrOr("data-ga-inventory-status", ""),
		Currency:        item.Find(`meta[itemprop="priceCurrency"]`).First().AttrOr("content", ""),
		Price:           price,
		Category:        category,
	}, nil
}

// ratingMeta reads the rating/review metadata node pair. Tiles for unreviewed
// products simply lack the pair; both values degrade to zero and the tile is
// kept.
func ratingMeta(item *goquery.Selection, name string) (float64, int) {
	ratingRaw, ok := item.Find(`meta[itemprop="ratingValue"]`).First().Attr("content")
	if !ok {
		log.Printf("no rating or review for product %s", name)
		return 0, 0
	}
	reviewsRaw, ok := item.Find(`meta[itemprop="reviewCount"]`).First().Attr("content")
	if !ok {
		log.Printf("no rating or review for product %s", name)
		return 0, 0
	}
	rating, err := strconv.ParseFloat(ratingRaw, 64)
	if err != nil {
		return 0, 0
	}
	reviews, err := strconv.Atoi(reviewsRaw)
	if err != nil {
		return 0, 0
	}
	return rating, reviews
}

// ParsePrice normalizes a price string like "$12.34 USD" by stripping every
// character except digits and the decimal point, then parsing as a float.
func ParsePrice(s string) (float64, error) {
	cleaned := nonPriceChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in price %q", s)
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return v, nil
}
