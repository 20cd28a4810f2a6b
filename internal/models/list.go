package models

// List groups tasks. Identity, owner and creation date come from the server.
type List struct {
	ListID           int64  `json:"list_id"`
	ListName         string `json:"list_name"`
	ListIcon         string `json:"list_icon,omitempty"`
	ListColor        string `json:"list_color,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	ListCreationDate string `json:"list_creation_date,omitempty"`
}

// CreateListInput is the body of a create-list request
type CreateListInput struct {
	ListName  string `json:"list_name" validate:"required,not_blank,max=200"`
	ListIcon  string `json:"list_icon,omitempty" validate:"max=16"`
	ListColor string `json:"list_color,omitempty" validate:"omitempty,hexcolor"`
}
