package schemas

// RegisterSchema struct
type RegisterSchema struct {
	Username string `validate:"required,max=30" json:"userName"`
	Password string `validate:"required,min=8,max=72" json:"password"`
	ImageURL string `validate:"omitempty,url,max=1000" json:"imageUrl"`
}

// LoginSchema struct
type LoginSchema struct {
	Username string `validate:"required,max=30" json:"userName"`
	Password string `validate:"required,max=72" json:"password"`
}

// RefreshTokenSchema struct
type RefreshTokenSchema struct {
	Token    string `validate:"required"`
	ExpireAt int64  `validate:"required"`
}

// TokensSchema struct
type TokensSchema struct {
	RefreshToken RefreshTokenSchema
	AccessToken  string
}

// LogoutSchema struct
type LogoutSchema struct {
	SessionID string `validate:"required" json:"sessionID"`
}

// LoginResponse struct, the tokens are also set as response headers
type LoginResponse struct {
	UserName     string
	PublicKey    string
	ProfileImage string
	SessionID    string
	Tokens       TokensSchema
}
