package request

type NotificationQuery struct {
	PaginatedRequest
	UnreadOnly bool `json:"unread_only"`
}
