package models

// Collection names shared by repositories, handlers and the index script.
const (
	CollectionProducts        = "products"
	CollectionProjects        = "projects"
	CollectionServices        = "services"
	CollectionClients         = "clients"
	CollectionTestimonials    = "testimonials"
	CollectionCategories      = "categories"
	CollectionOrders          = "orders"
	CollectionContactRequests = "contactrequests"
	CollectionCoupons         = "coupons"
	CollectionReviews         = "reviews"
	CollectionCounters        = "counters"
)

// Attribute names the core relies on across every listable collection.
const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldStatus    = "status"
	FieldFeatured  = "featured"
	// FieldVersion is the internal revision marker hidden from list output.
	FieldVersion = "__v"
)
