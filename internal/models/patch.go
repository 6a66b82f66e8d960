package models

// Patch types carry only the fields a caller wants to change; nil means untouched.

type UserPatch struct {
	Name        *string
	Email       *string
	Phone       *string
	Website     *string
	Password    *string
	Role        *string
	Permissions *[]string
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	IsActive    *bool
}

type OrderPatch struct {
	ContactName   *string
	ContactEmail  *string
	ContactPhone  *string
	Company       *string
	Notes         *string
	Status        *string
	PaymentStatus *string
	TotalAmount   *float64

	// ExpectStatus, when set, makes the update fail unless the stored status still matches.
	ExpectStatus string
}

type SubmissionPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Website *string
	Company *string
	Service *string
	Message *string
	Status  *string

	ExpectStatus string
}

func (p ProductPatch) ApplyProduct(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.IsActive != nil {
		dst.IsActive = *p.IsActive
	}
}

func (p ProductPatch) ApplyAddon(dst *AddonProduct) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.IsActive != nil {
		dst.IsActive = *p.IsActive
	}
}

func (p OrderPatch) Apply(dst *Order) {
	if p.ContactName != nil {
		dst.ContactName = *p.ContactName
	}
	if p.ContactEmail != nil {
		dst.ContactEmail = *p.ContactEmail
	}
	if p.ContactPhone != nil {
		dst.ContactPhone = *p.ContactPhone
	}
	if p.Company != nil {
		dst.Company = *p.Company
	}
	if p.Notes != nil {
		dst.Notes = *p.Notes
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		dst.PaymentStatus = *p.PaymentStatus
	}
	if p.TotalAmount != nil {
		dst.TotalAmount = *p.TotalAmount
	}
}

func (p SubmissionPatch) Apply(dst *Submission) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Email != nil {
		dst.Email = *p.Email
	}
	if p.Phone != nil {
		dst.Phone = *p.Phone
	}
	if p.Website != nil {
		dst.Website = *p.Website
	}
	if p.Company != nil {
		dst.Company = *p.Company
	}
	if p.Service != nil {
		dst.Service = *p.Service
	}
	if p.Message != nil {
		dst.Message = *p.Message
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
}

// ApplyProfile merges everything except the password, which the store hashes separately.
func (p UserPatch) ApplyProfile(dst *User) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Email != nil {
		dst.Email = *p.Email
		dst.EmailKey = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		dst.Phone = *p.Phone
	}
	if p.Website != nil {
		dst.Website = *p.Website
	}
	if p.Role != nil {
		dst.Role = *p.Role
	}
	if p.Permissions != nil {
		dst.Permissions = append([]string(nil), (*p.Permissions)...)
	}
}
