package schemas

// UserNameSchema names the other user of a request
type UserNameSchema struct {
	UserName string `validate:"required,max=30" json:"userName"`
}

// UsernameQuerySchema struct
type UsernameQuerySchema struct {
	UserName string `validate:"required,max=30" query:"userName"`
}

// SearchSchema struct
type SearchSchema struct {
	Query string `validate:"required,max=100" query:"query"`
}

// SendMessageSchema struct
type SendMessageSchema struct {
	Receiver string `validate:"required,max=30" json:"receiver"`
	Content  string `validate:"required,max=5000" json:"content"`
}

// VoiceMessageSchema is the form part of a voice message upload
type VoiceMessageSchema struct {
	Receiver string `validate:"required,max=30" form:"receiver"`
}

// UpdatePasswordSchema struct
type UpdatePasswordSchema struct {
	CurrentPassword string `validate:"required,max=72" json:"currentPassword"`
	NewPassword     string `validate:"required,min=8,max=72" json:"newPassword"`
}

// UpdateProfileImageSchema struct
type UpdateProfileImageSchema struct {
	ImageURL string `validate:"required,url,max=1000" json:"imageUrl"`
}

// SortListSchema struct
type SortListSchema struct {
	ListName string `validate:"required,max=30" json:"listName" query:"listName"`
}

// UpdateSortListSchema struct
type UpdateSortListSchema struct {
	CurrentListName string `validate:"required,max=30" json:"currentListName"`
	UpdatedListName string `validate:"required,max=30" json:"updatedListName"`
}

// AddToSortListSchema struct
type AddToSortListSchema struct {
	UserName string `validate:"required,max=30" json:"userName"`
	ListName string `validate:"required,max=30" json:"listName"`
}

// UsernameAvailableResponse struct
type UsernameAvailableResponse struct {
	IsUnique bool
}

// ConnectionResponse struct
type ConnectionResponse struct {
	UserName       string
	ConversationID string
}
