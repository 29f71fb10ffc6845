// Package marketplace layers the artisan marketplace schemas and queries over
// the generic record store.
package marketplace

import "artisanverse/internal/record"

// Collection names.
const (
	Users         = "users"
	Products      = "products"
	Orders        = "orders"
	Conversations = "conversations"
	Artisans      = "artisans"
	Reviews       = "reviews"
	Workshops     = "workshops"
)

// User roles.
const (
	RoleBuyer   = "buyer"
	RoleArtisan = "artisan"
	RoleAdmin   = "admin"
)

type User struct {
	record.Meta
	Email            string            `json:"email"`
	Password         string            `json:"password,omitempty"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Role             string            `json:"role"`
	Avatar           string            `json:"avatar,omitempty"`
	Location         string            `json:"location,omitempty"`
	CraftType        string            `json:"craftType,omitempty"`
	Interests        []string          `json:"interests,omitempty"`
	IsVerified       bool              `json:"isVerified"`
	IsActive         bool              `json:"isActive"`
	CulturalPassport *CulturalPassport `json:"culturalPassport,omitempty"`
	ArtisanProfile   *ArtisanProfile   `json:"artisanProfile,omitempty"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type CulturalPassport struct {
	Points          int      `json:"points"`
	RegionsExplored []string `json:"regionsExplored,omitempty"`
	Achievements    []string `json:"achievements,omitempty"`
}

type ArtisanProfile struct {
	Heritage    string   `json:"heritage,omitempty"`
	Experience  int      `json:"experience,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	Rating      float64  `json:"rating"`
	TotalOrders int      `json:"totalOrders"`
}

type Product struct {
	record.Meta
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Category      string   `json:"category,omitempty"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Region        string   `json:"region,omitempty"`
	Country       string   `json:"country,omitempty"`
	ArtisanID     string   `json:"artisanId"`
	ArtisanName   string   `json:"artisanName,omitempty"`
	SKU           string   `json:"sku,omitempty"`
	Images        []string `json:"images,omitempty"`
	InStock       int      `json:"inStock"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"reviewCount"`
	Views         int      `json:"views,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	CulturalStory string   `json:"culturalStory,omitempty"`
	Materials     []string `json:"materials,omitempty"`
	Techniques    []string `json:"techniques,omitempty"`
	TimeToMake    string   `json:"timeToMake,omitempty"`
	IsActive      bool     `json:"isActive"`
}

type Order struct {
	record.Meta
	OrderNumber string      `json:"orderNumber,omitempty"`
	BuyerID     string      `json:"buyerId"`
	Items       []OrderItem `json:"items,omitempty"`
	Pricing     *Pricing    `json:"pricing,omitempty"`
	Total       float64     `json:"total,omitempty"`
	Payment     *Payment    `json:"payment,omitempty"`
	Status      string      `json:"status,omitempty"`
}

// Amount is the order total: the top-level total when set, else the
// pricing breakdown's total.
func (o Order) Amount() float64 {
	if o.Total != 0 {
		return o.Total
	}
	if o.Pricing != nil {
		return o.Pricing.Total
	}
	return 0
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	ArtisanID string  `json:"artisanId,omitempty"`
	Title     string  `json:"title,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Pricing struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency,omitempty"`
}

type Payment struct {
	Method          string `json:"method,omitempty"`
	Status          string `json:"status"`
	Currency        string `json:"currency,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
}

type Conversation struct {
	record.Meta
	UserID      string `json:"userId"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	UserMessage string `json:"userMessage"`
	AIResponse  string `json:"aiResponse"`
	TokensUsed  int    `json:"tokensUsed,omitempty"`
}

type Review struct {
	record.Meta
	ProductID string  `json:"productId"`
	UserID    string  `json:"userId"`
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment,omitempty"`
}

type Workshop struct {
	record.Meta
	ArtisanID   string  `json:"artisanId"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Capacity    int     `json:"capacity,omitempty"`
}

// ArtisanSummary is the artisan card attached to product listings.
type ArtisanSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar,omitempty"`
	CraftType string   `json:"craftType,omitempty"`
	Location  string   `json:"location,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
}

// ProductListing is a product with its artisan card (nil when the artisan
// record is missing).
type ProductListing struct {
	Product
	Artisan *ArtisanSummary `json:"artisan"`
}

type Analytics struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalBuyers   int     `json:"totalBuyers"`
	TotalArtisans int     `json:"totalArtisans"`
	TotalProducts int     `json:"totalProducts"`
	TotalOrders   int     `json:"totalOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
}
