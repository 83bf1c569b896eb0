package schemas

// CreateTaskSchema struct
type CreateTaskSchema struct {
	Time        string   `validate:"required,max=20" json:"time"`
	Title       string   `validate:"required,max=100" json:"title"`
	Description []string `validate:"required,min=1,max=20,dive,required,max=1000" json:"description"`
	Links       []string `validate:"max=20,dive,url,max=1000" json:"links"`
	Completed   bool     `json:"completed"`
}

// TaskIDSchema struct
type TaskIDSchema struct {
	TaskID string `validate:"required,max=64" json:"taskId"`
}

// CompleteTaskSchema sets the completed flag of a task
type CompleteTaskSchema struct {
	TaskID    string `validate:"required,max=64" json:"taskId"`
	Completed *bool  `validate:"required" json:"completed"`
}
