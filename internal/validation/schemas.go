package validation

type SignUp struct {
	Username string `json:"username" validate:"required,min=3,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=3,max=8"`
}

type SignIn struct {
	Identifier string `json:"identifier" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
}

type VerifyCode struct {
	Username string `json:"username" validate:"required,min=3,username"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

type SendMessage struct {
	Username string `json:"username" validate:"required,min=3,username"`
	Content  string `json:"content" validate:"required,max=300"`
}

type AcceptMessages struct {
	AcceptMessages *bool `json:"acceptMessages" validate:"required"`
}
