package company

// Address is the company's postal address.
type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Zipcode string `json:"zipcode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// SocialMedia holds the public social links. All optional.
type SocialMedia struct {
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	WhatsApp  string `json:"whatsapp,omitempty"`
}

// Profile is the company-wide profile document, stored as a single JSON
// value in the KV store.
type Profile struct {
	Name               string       `json:"name" validate:"required"`
	Description        string       `json:"description" validate:"required"`
	ShortDescription   string       `json:"short_description,omitempty"`
	Tagline            string       `json:"tagline,omitempty"`
	PrimaryPhone       string       `json:"primary_phone" validate:"required"`
	AlternatePhone     string       `json:"alternate_phone,omitempty"`
	PublicContactEmail string       `json:"public_contact_email" validate:"required,email"`
	BusinessHours      string       `json:"business_hours,omitempty"`
	Address            *Address     `json:"address,omitempty"`
	SocialMedia        *SocialMedia `json:"social_media,omitempty"`
}

// KVAsset is an arbitrary operator-managed KV entry. Value is raw JSON, or
// null when the key does not exist.
type KVAsset struct {
	Key   string `json:"kv_key"`
	Value any    `json:"kv_value"`
}
