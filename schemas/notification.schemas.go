package schemas

// DeleteNotificationSchema addresses one entry of a notification sub-list
type DeleteNotificationSchema struct {
	SubList string `validate:"required" json:"subList"`
	Index   *int   `validate:"required,min=0" json:"index"`
}
