package schemas

// CreateGroupSchema struct
type CreateGroupSchema struct {
	GroupName string `validate:"required,min=3,max=15" json:"groupName"`
	ImageURL  string `validate:"omitempty,url,max=1000" json:"imageUrl"`
}

// GroupNameSchema struct
type GroupNameSchema struct {
	GroupName string `validate:"required,max=15" json:"groupName"`
}

// GroupRequestSchema is an admin decision on the join request of UserName
type GroupRequestSchema struct {
	GroupName string `validate:"required,max=15" json:"groupName"`
	UserName  string `validate:"required,max=30" json:"userName"`
}

// GroupMessageSchema struct
type GroupMessageSchema struct {
	GroupName string `validate:"required,max=15" json:"groupName"`
	Content   string `validate:"required,max=5000" json:"content"`
}
