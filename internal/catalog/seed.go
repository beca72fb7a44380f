package catalog

import (
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const (
	placeholderImage = "https://placehold.co/400x300"
	placeholderLogo  = "https://placehold.co/80x30"
)

func seedProduct(id int64, name, price, original string, rating float64, merchant, category string, discount int) models.Product {
	orig := decimal.RequireFromString(original)
	return models.Product{
		ID:                 id,
		Name:               name,
		Price:              decimal.RequireFromString(price),
		OriginalPrice:      &orig,
		Image:              placeholderImage,
		Rating:             rating,
		Merchant:           merchant,
		MerchantLogo:       placeholderLogo,
		Category:           category,
		DiscountPercentage: &discount,
	}
}

// Seed returns a fresh copy of the demo catalog. It matches the rows inserted by
// the seed migration, so the static source and an untouched database agree.
func Seed() []models.Product {
	return []models.Product{
		seedProduct(1, "Wireless Noise Cancelling Headphones", "249.99", "299.99", 4.7, "ElectroMart", "electronics", 17),
		seedProduct(2, "Smart Watch Series 5", "399.99", "449.99", 4.9, "TechGadgets", "electronics", 11),
		seedProduct(3, `Ultra HD 4K Smart TV - 55"`, "679.99", "799.99", 4.5, "HomeElectronics", "electronics", 15),
		seedProduct(4, "Ergonomic Gaming Chair", "189.99", "249.99", 4.6, "GamerZone", "home", 24),
		seedProduct(5, "Premium Bluetooth Speaker", "129.99", "159.99", 4.3, "ElectroMart", "electronics", 19),
		seedProduct(6, "Designer Leather Jacket", "299.99", "399.99", 4.8, "FashionStore", "clothing", 25),
		seedProduct(7, "Professional DSLR Camera", "1299.99", "1499.99", 4.9, "CameraWorld", "electronics", 13),
		seedProduct(8, "Stainless Steel Kitchen Knife Set", "89.99", "129.99", 4.7, "HomeGoods", "home", 31),
		seedProduct(9, "Organic Skincare Gift Set", "59.99", "79.99", 4.6, "BeautyEmporium", "beauty", 25),
		seedProduct(10, "Adjustable Dumbbell Set", "249.99", "299.99", 4.8, "FitnessWorld", "sports", 17),
		seedProduct(11, "Ultra-Thin Laptop Pro", "1299.99", "1499.99", 4.9, "TechGadgets", "electronics", 13),
		seedProduct(12, "Designer Sunglasses", "179.99", "219.99", 4.5, "FashionStore", "clothing", 18),
	}
}
