package transport

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name            string `json:"name"            validate:"required,min=2,max=100"`
	Email           string `json:"email"           validate:"required,email"`
	Phone           string `json:"phone"           validate:"omitempty,max=32"`
	Website         string `json:"website"         validate:"omitempty,url"`
	Password        string `json:"password"        validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type PatchProfileRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2,max=100"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Phone   *string `json:"phone"   validate:"omitempty,max=32"`
	Website *string `json:"website" validate:"omitempty,url"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type CreateUserRequest struct {
	Name        string   `json:"name"        validate:"required,min=2,max=100"`
	Email       string   `json:"email"       validate:"required,email"`
	Phone       string   `json:"phone"       validate:"omitempty,max=32"`
	Website     string   `json:"website"     validate:"omitempty,url"`
	Password    string   `json:"password"    validate:"required,min=6,max=72"`
	Role        string   `json:"role"        validate:"required,oneof=admin manager user"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

type PatchUserRequest struct {
	Name        *string   `json:"name"        validate:"omitempty,min=2,max=100"`
	Email       *string   `json:"email"       validate:"omitempty,email"`
	Phone       *string   `json:"phone"       validate:"omitempty,max=32"`
	Website     *string   `json:"website"     validate:"omitempty,url"`
	Password    *string   `json:"password"    validate:"omitempty,min=6,max=72"`
	Role        *string   `json:"role"        validate:"omitempty,oneof=admin manager user"`
	Permissions *[]string `json:"permissions" validate:"omitempty,dive,required"`
}

type ProductRequest struct {
	Name        string  `json:"name"        validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Category    string  `json:"category"    validate:"max=100"`
	IsActive    *bool   `json:"isActive"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Category    *string  `json:"category"    validate:"omitempty,max=100"`
	IsActive    *bool    `json:"isActive"`
}

type AddCartItemRequest struct {
	ProductID uint `json:"productId" validate:"required,gt=0"`
	IsAddon   bool `json:"isAddon"`
	Quantity  int  `json:"quantity"  validate:"required,min=1,max=1000"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=1000"`
}

// CheckoutRequest fields override the caller's profile in the order's contact snapshot.
type CheckoutRequest struct {
	ContactName  string `json:"contactName"  validate:"omitempty,max=100"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone" validate:"omitempty,max=32"`
	Company      string `json:"company"      validate:"omitempty,max=200"`
	Notes        string `json:"notes"        validate:"omitempty,max=5000"`
}

type RevisionRequest struct {
	Description string `json:"description" validate:"required,max=5000"`
}

type PatchOrderRequest struct {
	ContactName   *string  `json:"contactName"   validate:"omitempty,min=1,max=100"`
	ContactEmail  *string  `json:"contactEmail"  validate:"omitempty,email"`
	ContactPhone  *string  `json:"contactPhone"  validate:"omitempty,max=32"`
	Company       *string  `json:"company"       validate:"omitempty,max=200"`
	Notes         *string  `json:"notes"         validate:"omitempty,max=5000"`
	Status        *string  `json:"status"        validate:"omitempty,oneof=new pending in_progress completed delivered cancelled lost"`
	PaymentStatus *string  `json:"paymentStatus" validate:"omitempty,oneof=unpaid paid refunded"`
	TotalAmount   *float64 `json:"totalAmount"   validate:"omitempty,gte=0"`
}

type SubmissionRequest struct {
	Name    string `json:"name"    validate:"required,min=2,max=100"`
	Email   string `json:"email"   validate:"required,email"`
	Phone   string `json:"phone"   validate:"omitempty,max=32"`
	Website string `json:"website" validate:"omitempty,url"`
	Company string `json:"company" validate:"omitempty,max=200"`
	Service string `json:"service" validate:"omitempty,max=100"`
	Message string `json:"message" validate:"required,max=5000"`
}

type PatchSubmissionRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2,max=100"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Phone   *string `json:"phone"   validate:"omitempty,max=32"`
	Website *string `json:"website" validate:"omitempty,url"`
	Company *string `json:"company" validate:"omitempty,max=200"`
	Service *string `json:"service" validate:"omitempty,max=100"`
	Message *string `json:"message" validate:"omitempty,max=5000"`
	Status  *string `json:"status"  validate:"omitempty,oneof=new in_progress pending delivered lost"`
}

type NoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}
